package pipeline

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/artist-etl/internal/awards"
	"github.com/sells-group/artist-etl/internal/extract"
	"github.com/sells-group/artist-etl/internal/load"
	"github.com/sells-group/artist-etl/internal/merge"
	"github.com/sells-group/artist-etl/internal/model"
	"github.com/sells-group/artist-etl/internal/names"
	"github.com/sells-group/artist-etl/internal/staging"
	"github.com/sells-group/artist-etl/internal/transform"
)

// Step names, in DAG order.
const (
	StepExtractCatalog     = "extract_catalog"
	StepExtractCeremony    = "extract_ceremony"
	StepExtractKnowledge   = "extract_knowledge"
	StepTransformCatalog   = "transform_catalog"
	StepTransformCeremony  = "transform_ceremony"
	StepTransformKnowledge = "transform_knowledge"
	StepMerge              = "merge"
	StepLoad               = "load"
	StepStore              = "store"
)

// StepResult is what one step reports back to the engine or workflow.
type StepResult struct {
	Rows     int            `json:"rows"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Sink receives the merged records.
type Sink interface {
	Write(ctx context.Context, table string, policy load.Policy, records []model.UnifiedRecord) (int64, error)
}

// Uploader copies a local file to the file store.
type Uploader interface {
	Upload(ctx context.Context, localPath, name string) (string, error)
}

// AwardsConfig configures the knowledge transform. A fresh classification
// cache is built for every pass.
type AwardsConfig struct {
	Target      string
	Denylist    []string
	HonorMarker string
	Classifier  awards.Classifier
}

// Stages implements every DAG step as a function over a run directory. Each
// step reads the files its upstream steps staged there and writes its own.
// A nil Uploader turns the store step into a no-op.
type Stages struct {
	Catalog    *extract.Catalog
	Ceremony   *extract.Ceremony
	Knowledge  *extract.Knowledge
	Genres     transform.GenreMap
	Splitter   *names.Splitter
	Awards     AwardsConfig
	Sink       Sink
	Table      string
	Policy     load.Policy
	Uploader   Uploader
	ObjectName string
}

func (s *Stages) ExtractCatalog(ctx context.Context, dir string) (StepResult, error) {
	if s.Catalog == nil {
		return StepResult{}, eris.New("pipeline: catalog source not configured")
	}
	n, err := s.Catalog.Extract(ctx, filepath.Join(dir, staging.CatalogFile))
	return StepResult{Rows: n}, err
}

func (s *Stages) ExtractCeremony(ctx context.Context, dir string) (StepResult, error) {
	if s.Ceremony == nil {
		return StepResult{}, eris.New("pipeline: ceremony source not configured")
	}
	n, err := s.Ceremony.Extract(ctx, filepath.Join(dir, staging.CeremonyFile))
	return StepResult{Rows: n}, err
}

func (s *Stages) ExtractKnowledge(ctx context.Context, dir string) (StepResult, error) {
	if s.Knowledge == nil {
		return StepResult{}, eris.New("pipeline: knowledge source not configured")
	}
	res, err := s.Knowledge.Extract(ctx,
		filepath.Join(dir, staging.FactsFile),
		filepath.Join(dir, staging.SkippedFile),
	)
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{
		Rows: len(res.Facts),
		Metadata: map[string]any{
			"batches":  res.Batches,
			"failures": res.Failures,
			"skipped":  len(res.Skipped),
		},
	}, nil
}

func (s *Stages) TransformCatalog(ctx context.Context, dir string) (StepResult, error) {
	if err := ctx.Err(); err != nil {
		return StepResult{}, err
	}
	raw, err := extract.ReadCatalog(filepath.Join(dir, staging.CatalogFile))
	if err != nil {
		return StepResult{}, eris.Wrap(err, "pipeline: transform catalog")
	}
	tracks := transform.CleanTracks(raw, s.Genres)
	if err := staging.WriteFile(filepath.Join(dir, staging.TracksFile), tracks); err != nil {
		return StepResult{}, eris.Wrap(err, "pipeline: transform catalog")
	}
	return StepResult{Rows: len(tracks), Metadata: map[string]any{"raw": len(raw)}}, nil
}

func (s *Stages) TransformCeremony(ctx context.Context, dir string) (StepResult, error) {
	if err := ctx.Err(); err != nil {
		return StepResult{}, err
	}
	raw, err := staging.ReadFile[model.RawNomination](filepath.Join(dir, staging.CeremonyFile))
	if err != nil {
		return StepResult{}, eris.Wrap(err, "pipeline: transform ceremony")
	}
	noms := transform.CleanNominations(raw)
	if err := staging.WriteFile(filepath.Join(dir, staging.NomsFile), noms); err != nil {
		return StepResult{}, eris.Wrap(err, "pipeline: transform ceremony")
	}
	return StepResult{Rows: len(noms), Metadata: map[string]any{"raw": len(raw)}}, nil
}

func (s *Stages) TransformKnowledge(ctx context.Context, dir string) (StepResult, error) {
	if err := ctx.Err(); err != nil {
		return StepResult{}, err
	}
	facts, err := staging.ReadFile[model.KnowledgeFact](filepath.Join(dir, staging.FactsFile))
	if err != nil {
		return StepResult{}, eris.Wrap(err, "pipeline: transform knowledge")
	}
	filter := awards.NewFilter(s.Awards.Target, s.Awards.Denylist, awards.NewCache(s.Awards.Classifier))
	profiles := awards.Aggregate(facts, awards.Options{
		Filter:      filter,
		HonorMarker: s.Awards.HonorMarker,
	})
	if err := staging.WriteFile(filepath.Join(dir, staging.ProfilesFile), profiles); err != nil {
		return StepResult{}, eris.Wrap(err, "pipeline: transform knowledge")
	}
	return StepResult{
		Rows: len(profiles),
		Metadata: map[string]any{
			"facts":           len(facts),
			"classifications": filter.Cache.Len(),
		},
	}, nil
}

func (s *Stages) Merge(ctx context.Context, dir string) (StepResult, error) {
	if err := ctx.Err(); err != nil {
		return StepResult{}, err
	}
	tracks, err := staging.ReadFile[model.Track](filepath.Join(dir, staging.TracksFile))
	if err != nil {
		return StepResult{}, eris.Wrap(err, "pipeline: merge")
	}
	noms, err := staging.ReadFile[model.Nomination](filepath.Join(dir, staging.NomsFile))
	if err != nil {
		return StepResult{}, eris.Wrap(err, "pipeline: merge")
	}
	profiles, err := staging.ReadFile[model.ArtistProfile](filepath.Join(dir, staging.ProfilesFile))
	if err != nil {
		return StepResult{}, eris.Wrap(err, "pipeline: merge")
	}

	records, st := merge.MergeWithStats(tracks, noms, profiles, s.Splitter)
	if err := load.WriteCSV(filepath.Join(dir, staging.MergedFile), records); err != nil {
		return StepResult{}, eris.Wrap(err, "pipeline: merge")
	}
	return StepResult{
		Rows: len(records),
		Metadata: map[string]any{
			"expanded_tracks": st.ExpandedTracks,
			"duplicates":      st.Duplicates,
			"no_nomination":   st.NoNomination,
			"no_profile":      st.NoProfile,
			"incomplete":      st.Incomplete,
		},
	}, nil
}

func (s *Stages) Load(ctx context.Context, dir string) (StepResult, error) {
	if s.Sink == nil {
		return StepResult{}, eris.New("pipeline: sink not configured")
	}
	records, err := staging.ReadFile[model.UnifiedRecord](filepath.Join(dir, staging.MergedFile))
	if err != nil {
		return StepResult{}, eris.Wrap(err, "pipeline: load")
	}
	n, err := s.Sink.Write(ctx, s.Table, s.Policy, records)
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{Rows: int(n)}, nil
}

func (s *Stages) Store(ctx context.Context, dir string) (StepResult, error) {
	if s.Uploader == nil {
		return StepResult{Metadata: map[string]any{"skipped": true}}, nil
	}
	key, err := s.Uploader.Upload(ctx, filepath.Join(dir, staging.MergedFile), s.ObjectName)
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{Metadata: map[string]any{"key": key}}, nil
}

// Step returns the step registered under name.
func (s *Stages) Step(name string) (StepFunc, bool) {
	steps := map[string]StepFunc{
		StepExtractCatalog:     s.ExtractCatalog,
		StepExtractCeremony:    s.ExtractCeremony,
		StepExtractKnowledge:   s.ExtractKnowledge,
		StepTransformCatalog:   s.TransformCatalog,
		StepTransformCeremony:  s.TransformCeremony,
		StepTransformKnowledge: s.TransformKnowledge,
		StepMerge:              s.Merge,
		StepLoad:               s.Load,
		StepStore:              s.Store,
	}
	fn, ok := steps[name]
	return fn, ok
}
