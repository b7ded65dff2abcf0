package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/artist-etl/internal/model"
	"github.com/sells-group/artist-etl/internal/store"
)

// Tracker records steps as phases of one run. Store failures are logged
// and never fail the step.
type Tracker struct {
	store store.Store
	runID string
	log   *zap.Logger
}

// NewTracker creates a Tracker for runID.
func NewTracker(st store.Store, runID string) *Tracker {
	return &Tracker{
		store: st,
		runID: runID,
		log:   zap.L().With(zap.String("run_id", runID)),
	}
}

// Track runs fn as phase name and returns its outcome.
func (t *Tracker) Track(ctx context.Context, name string, fn func(ctx context.Context) (StepResult, error)) (StepResult, model.PhaseResult, error) {
	phase, phaseErr := t.store.CreatePhase(ctx, t.runID, name)
	if phaseErr != nil {
		t.log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(phaseErr))
	}

	start := time.Now()
	sr, fnErr := fn(ctx)
	duration := time.Since(start).Milliseconds()

	pr := model.PhaseResult{
		Name:     name,
		Duration: duration,
		Rows:     sr.Rows,
		Metadata: sr.Metadata,
	}
	if fnErr != nil {
		pr.Status = model.PhaseStatusFailed
		pr.Error = fnErr.Error()
		t.log.Error("pipeline: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
			zap.Error(fnErr),
		)
	} else {
		pr.Status = model.PhaseStatusComplete
		t.log.Info("pipeline: phase complete",
			zap.String("phase", name),
			zap.Int("rows", sr.Rows),
			zap.Int64("duration_ms", duration),
		)
	}

	if phase != nil {
		if err := t.store.CompletePhase(context.WithoutCancel(ctx), phase.ID, &pr); err != nil {
			t.log.Warn("pipeline: failed to complete phase", zap.String("phase", name), zap.Error(err))
		}
	}
	return sr, pr, fnErr
}
