package extract

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/artist-etl/internal/fetcher"
	"github.com/sells-group/artist-etl/internal/knowledge"
	"github.com/sells-group/artist-etl/internal/names"
	"github.com/sells-group/artist-etl/internal/staging"
)

// SkippedName records a universe entry no batch could resolve.
type SkippedName struct {
	Name string `csv:"name"`
}

// Knowledge resolves the artist-name universe against the knowledge base.
// NamesPath is a headerless CSV whose first column holds raw artist names.
type Knowledge struct {
	NamesPath string
	Fetcher   *knowledge.Fetcher
}

// ReadNames loads and cleans the artist-name universe.
func ReadNames(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	raw, err := fetcher.ReadColumn(ctx, f, fetcher.CSVOptions{LazyQuotes: true}, 0)
	if err != nil {
		return nil, eris.Wrap(err, "extract: read names")
	}
	return names.Universe(raw), nil
}

// Extract fetches facts for the universe and stages them at factsPath.
// Skipped names go to skippedPath. It returns the fetch result.
func (k *Knowledge) Extract(ctx context.Context, factsPath, skippedPath string) (*knowledge.Result, error) {
	if k.Fetcher == nil {
		return nil, eris.New("extract: knowledge fetcher not configured")
	}
	universe, err := ReadNames(ctx, k.NamesPath)
	if err != nil {
		return nil, err
	}
	zap.L().Info("extract: artist universe loaded", zap.Int("names", len(universe)))

	res, err := k.Fetcher.Fetch(ctx, universe)
	if err != nil {
		return nil, eris.Wrap(err, "extract: fetch knowledge")
	}
	if len(res.Facts) == 0 {
		return res, emptyDataset("knowledge")
	}
	if err := staging.WriteFile(factsPath, res.Facts); err != nil {
		return res, eris.Wrap(err, "extract: stage knowledge")
	}

	skipped := make([]SkippedName, 0, len(res.Skipped))
	for _, n := range res.Skipped {
		skipped = append(skipped, SkippedName{Name: n})
	}
	if err := staging.WriteFile(skippedPath, skipped); err != nil {
		return res, eris.Wrap(err, "extract: stage skipped names")
	}
	return res, nil
}
