// Package pipeline runs the artist ETL as a DAG: three extract and
// transform branches, then merge, load and store.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/artist-etl/internal/model"
	"github.com/sells-group/artist-etl/internal/resilience"
	"github.com/sells-group/artist-etl/internal/store"
)

// StepFunc is the signature shared by every Stages method.
type StepFunc func(ctx context.Context, dir string) (StepResult, error)

// Branch is one extract step followed by its transform.
type Branch struct {
	Extract     string
	Transform   string
	ExtractFn   StepFunc
	TransformFn StepFunc
}

// Branches returns the three independent source branches.
func (s *Stages) Branches() []Branch {
	return []Branch{
		{StepExtractCatalog, StepTransformCatalog, s.ExtractCatalog, s.TransformCatalog},
		{StepExtractCeremony, StepTransformCeremony, s.ExtractCeremony, s.TransformCeremony},
		{StepExtractKnowledge, StepTransformKnowledge, s.ExtractKnowledge, s.TransformKnowledge},
	}
}

// EngineConfig tunes an Engine.
type EngineConfig struct {
	// WorkDir holds one subdirectory per run.
	WorkDir string

	// Retries is the number of extra attempts per failed step.
	Retries int

	// RetryDelay is the pause before a retry.
	RetryDelay time.Duration
}

// Engine executes Stages in-process and records every step in a Store.
type Engine struct {
	stages *Stages
	store  store.Store
	cfg    EngineConfig
}

// NewEngine creates an Engine.
func NewEngine(stages *Stages, st store.Store, cfg EngineConfig) *Engine {
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Engine{stages: stages, store: st, cfg: cfg}
}

// Run executes the DAG once. A failed step fails the run; the returned
// result is still populated with the phases that ran.
func (e *Engine) Run(ctx context.Context) (*model.RunResult, error) {
	run, err := e.store.CreateRun(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log := zap.L().With(zap.String("run_id", run.ID))
	log.Info("pipeline: starting run")

	dir := filepath.Join(e.cfg.WorkDir, run.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, e.fail(ctx, run.ID, &model.RunResult{}, eris.Wrap(err, "pipeline: create run dir"))
	}

	result := &model.RunResult{}
	tracker := NewTracker(e.store, run.ID)
	var phasesMu sync.Mutex
	trackPhase := func(ctx context.Context, name string, fn StepFunc) (StepResult, error) {
		sr, pr, err := tracker.Track(ctx, name, func(ctx context.Context) (StepResult, error) {
			return resilience.DoVal(ctx, resilience.RetryConfig{
				MaxAttempts:    e.cfg.Retries + 1,
				InitialBackoff: e.cfg.RetryDelay,
				Multiplier:     1,
				ShouldRetry:    func(error) bool { return true },
				OnRetry:        resilience.RetryLogger("pipeline", name),
			}, func(ctx context.Context) (StepResult, error) {
				return fn(ctx, dir)
			})
		})
		phasesMu.Lock()
		result.Phases = append(result.Phases, pr)
		phasesMu.Unlock()
		return sr, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, b := range e.stages.Branches() {
		g.Go(func() error {
			sr, err := trackPhase(gCtx, b.Extract, b.ExtractFn)
			if err != nil {
				return eris.Wrapf(err, "pipeline: %s", b.Extract)
			}
			if b.Extract == StepExtractKnowledge {
				if n, ok := sr.Metadata["skipped"].(int); ok {
					phasesMu.Lock()
					result.SkippedNames = n
					phasesMu.Unlock()
				}
			}
			if _, err := trackPhase(gCtx, b.Transform, b.TransformFn); err != nil {
				return eris.Wrapf(err, "pipeline: %s", b.Transform)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, e.fail(ctx, run.ID, result, err)
	}

	for _, step := range []struct {
		name string
		fn   StepFunc
	}{
		{StepMerge, e.stages.Merge},
		{StepLoad, e.stages.Load},
		{StepStore, e.stages.Store},
	} {
		sr, err := trackPhase(ctx, step.name, step.fn)
		if err != nil {
			return result, e.fail(ctx, run.ID, result, eris.Wrapf(err, "pipeline: %s", step.name))
		}
		if step.name == StepLoad {
			result.RowsLoaded = int64(sr.Rows)
		}
	}

	if err := e.store.FinishRun(ctx, run.ID, model.RunStatusComplete, result); err != nil {
		log.Warn("pipeline: failed to finish run", zap.Error(err))
	}
	log.Info("pipeline: run complete",
		zap.Int64("rows_loaded", result.RowsLoaded),
		zap.Int("skipped_names", result.SkippedNames),
		zap.String("dir", dir),
	)
	return result, nil
}

func (e *Engine) fail(ctx context.Context, runID string, result *model.RunResult, err error) error {
	result.Error = err.Error()
	// The caller's ctx may already be cancelled; the failure still needs recording.
	if finErr := e.store.FinishRun(context.WithoutCancel(ctx), runID, model.RunStatusFailed, result); finErr != nil {
		zap.L().Warn("pipeline: failed to record run failure", zap.String("run_id", runID), zap.Error(finErr))
	}
	return err
}
