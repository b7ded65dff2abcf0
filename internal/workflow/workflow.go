// Package workflow runs the artist ETL DAG as a Temporal workflow.
package workflow

import (
	"time"

	"github.com/rotisserie/eris"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/sells-group/artist-etl/internal/model"
	"github.com/sells-group/artist-etl/internal/pipeline"
)

var branches = [][]string{
	{pipeline.StepExtractCatalog, pipeline.StepTransformCatalog},
	{pipeline.StepExtractCeremony, pipeline.StepTransformCeremony},
	{pipeline.StepExtractKnowledge, pipeline.StepTransformKnowledge},
}

var tail = []string{pipeline.StepMerge, pipeline.StepLoad, pipeline.StepStore}

// Input tunes one workflow execution.
type Input struct {
	Retries       int           `json:"retries"`
	RetryInterval time.Duration `json:"retry_interval"`
	StepTimeout   time.Duration `json:"step_timeout"`
}

func (in Input) withDefaults() Input {
	if in.Retries < 0 {
		in.Retries = 0
	}
	if in.RetryInterval <= 0 {
		in.RetryInterval = time.Second
	}
	if in.StepTimeout <= 0 {
		in.StepTimeout = time.Hour
	}
	return in
}

var bookkeepingOptions = workflow.ActivityOptions{
	StartToCloseTimeout: time.Minute,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    time.Minute,
		MaximumAttempts:    3,
	},
}

// ArtistETL runs the three source branches concurrently, then merge, load
// and store. A failed step fails the run.
func ArtistETL(ctx workflow.Context, in Input) (*model.RunResult, error) {
	in = in.withDefaults()
	logger := workflow.GetLogger(ctx)

	bookCtx := workflow.WithActivityOptions(ctx, bookkeepingOptions)
	stepCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: in.StepTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    in.RetryInterval,
			BackoffCoefficient: 1.0,
			MaximumAttempts:    int32(in.Retries + 1),
		},
	})

	var a *Activities
	var info RunInfo
	if err := workflow.ExecuteActivity(bookCtx, a.StartRun).Get(ctx, &info); err != nil {
		return nil, err
	}
	logger.Info("run started", "run_id", info.RunID)

	result := &model.RunResult{}
	runStep := func(ctx workflow.Context, step string) (model.PhaseResult, error) {
		var phase model.PhaseResult
		err := workflow.ExecuteActivity(ctx, a.RunStep, StepInput{RunID: info.RunID, Dir: info.Dir, Step: step}).Get(ctx, &phase)
		if err != nil {
			result.Phases = append(result.Phases, model.PhaseResult{
				Name:   step,
				Status: model.PhaseStatusFailed,
				Error:  err.Error(),
			})
			return phase, eris.Wrapf(err, "workflow: %s", step)
		}
		result.Phases = append(result.Phases, phase)
		return phase, nil
	}
	fail := func(err error) (*model.RunResult, error) {
		result.Error = err.Error()
		finCtx, _ := workflow.NewDisconnectedContext(bookCtx)
		fin := FinishInput{RunID: info.RunID, Status: model.RunStatusFailed, Result: result}
		if finErr := workflow.ExecuteActivity(finCtx, a.FinishRun, fin).Get(finCtx, nil); finErr != nil {
			logger.Warn("failed to record run failure", "run_id", info.RunID, "error", finErr)
		}
		return result, err
	}

	branchCtx, cancel := workflow.WithCancel(stepCtx)
	defer cancel()
	var branchErr error
	wg := workflow.NewWaitGroup(ctx)
	for _, steps := range branches {
		wg.Add(1)
		workflow.Go(branchCtx, func(gctx workflow.Context) {
			defer wg.Done()
			for _, step := range steps {
				phase, err := runStep(gctx, step)
				if err != nil {
					if branchErr == nil {
						branchErr = err
						cancel()
					}
					return
				}
				if step == pipeline.StepExtractKnowledge {
					result.SkippedNames = metaInt(phase.Metadata, "skipped")
				}
			}
		})
	}
	wg.Wait(ctx)
	if branchErr != nil {
		return fail(branchErr)
	}

	for _, step := range tail {
		phase, err := runStep(stepCtx, step)
		if err != nil {
			return fail(err)
		}
		if step == pipeline.StepLoad {
			result.RowsLoaded = int64(phase.Rows)
		}
	}

	fin := FinishInput{RunID: info.RunID, Status: model.RunStatusComplete, Result: result}
	if err := workflow.ExecuteActivity(bookCtx, a.FinishRun, fin).Get(ctx, nil); err != nil {
		logger.Warn("failed to finish run", "run_id", info.RunID, "error", err)
	}
	logger.Info("run complete", "run_id", info.RunID, "rows_loaded", result.RowsLoaded)
	return result, nil
}

// metaInt reads a count from phase metadata. Values that crossed the data
// converter arrive as float64.
func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
