package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/sells-group/artist-etl/internal/model"
	"github.com/sells-group/artist-etl/internal/pipeline"
	"github.com/sells-group/artist-etl/internal/store"
)

// RunInfo identifies a run and its working directory.
type RunInfo struct {
	RunID string `json:"run_id"`
	Dir   string `json:"dir"`
}

// StepInput selects one DAG step of a run.
type StepInput struct {
	RunID string `json:"run_id"`
	Dir   string `json:"dir"`
	Step  string `json:"step"`
}

// FinishInput records the final status of a run.
type FinishInput struct {
	RunID  string           `json:"run_id"`
	Status model.RunStatus  `json:"status"`
	Result *model.RunResult `json:"result,omitempty"`
}

// Activities wraps pipeline stages as Temporal activities. Every activity
// must run on a worker that shares WorkDir with the others.
type Activities struct {
	stages  *pipeline.Stages
	store   store.Store
	workDir string
}

// NewActivities creates Activities.
func NewActivities(stages *pipeline.Stages, st store.Store, workDir string) *Activities {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Activities{stages: stages, store: st, workDir: workDir}
}

// StartRun creates a run record and its working directory.
func (a *Activities) StartRun(ctx context.Context) (RunInfo, error) {
	run, err := a.store.CreateRun(ctx)
	if err != nil {
		return RunInfo{}, eris.Wrap(err, "workflow: create run")
	}
	dir := filepath.Join(a.workDir, run.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return RunInfo{}, eris.Wrap(err, "workflow: create run dir")
	}
	zap.L().Info("workflow: run started", zap.String("run_id", run.ID), zap.String("dir", dir))
	return RunInfo{RunID: run.ID, Dir: dir}, nil
}

// RunStep executes one step and records it as a phase.
func (a *Activities) RunStep(ctx context.Context, in StepInput) (model.PhaseResult, error) {
	fn, ok := a.stages.Step(in.Step)
	if !ok {
		return model.PhaseResult{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("workflow: unknown step %q", in.Step), "UnknownStep", nil)
	}
	_, pr, err := pipeline.NewTracker(a.store, in.RunID).Track(ctx, in.Step, func(ctx context.Context) (pipeline.StepResult, error) {
		return fn(ctx, in.Dir)
	})
	return pr, err
}

// FinishRun marks the run complete or failed.
func (a *Activities) FinishRun(ctx context.Context, in FinishInput) error {
	if err := a.store.FinishRun(ctx, in.RunID, in.Status, in.Result); err != nil {
		return eris.Wrap(err, "workflow: finish run")
	}
	return nil
}
