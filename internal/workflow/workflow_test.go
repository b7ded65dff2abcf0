package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"

	"github.com/sells-group/artist-etl/internal/model"
	"github.com/sells-group/artist-etl/internal/pipeline"
)

type workflowSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite

	env  *testsuite.TestWorkflowEnvironment
	acts *Activities

	mu       sync.Mutex
	steps    []string
	finished *FinishInput
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(workflowSuite))
}

func (s *workflowSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.acts = &Activities{}
	s.env.RegisterActivity(s.acts)
	s.steps = nil
	s.finished = nil

	s.env.OnActivity(s.acts.StartRun, mock.Anything).Return(RunInfo{RunID: "run-1", Dir: "/tmp/run-1"}, nil)
	s.env.OnActivity(s.acts.FinishRun, mock.Anything, mock.Anything).Return(
		func(_ context.Context, in FinishInput) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.finished = &in
			return nil
		})
}

func (s *workflowSuite) record(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step)
}

func (s *workflowSuite) TestArtistETL_Complete() {
	s.env.OnActivity(s.acts.RunStep, mock.Anything, mock.Anything).Return(
		func(_ context.Context, in StepInput) (model.PhaseResult, error) {
			s.record(in.Step)
			pr := model.PhaseResult{Name: in.Step, Status: model.PhaseStatusComplete, Rows: 3}
			switch in.Step {
			case pipeline.StepExtractKnowledge:
				pr.Metadata = map[string]any{"skipped": 4}
			case pipeline.StepLoad:
				pr.Rows = 2
			}
			return pr, nil
		})

	s.env.ExecuteWorkflow(ArtistETL, Input{Retries: 1})

	s.Require().True(s.env.IsWorkflowCompleted())
	s.Require().NoError(s.env.GetWorkflowError())

	var result model.RunResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	s.Equal(int64(2), result.RowsLoaded)
	s.Equal(4, result.SkippedNames)
	s.Len(result.Phases, 9)
	s.Empty(result.Error)

	s.Len(s.steps, 9)
	s.Equal([]string{pipeline.StepMerge, pipeline.StepLoad, pipeline.StepStore}, s.steps[6:])

	s.Require().NotNil(s.finished)
	s.Equal("run-1", s.finished.RunID)
	s.Equal(model.RunStatusComplete, s.finished.Status)
}

func (s *workflowSuite) TestArtistETL_RetriesThenFails() {
	var loadAttempts atomic.Int32
	s.env.OnActivity(s.acts.RunStep, mock.Anything, mock.Anything).Return(
		func(_ context.Context, in StepInput) (model.PhaseResult, error) {
			if in.Step == pipeline.StepLoad {
				loadAttempts.Add(1)
				return model.PhaseResult{}, errors.New("sink down")
			}
			s.record(in.Step)
			return model.PhaseResult{Name: in.Step, Status: model.PhaseStatusComplete}, nil
		})

	s.env.ExecuteWorkflow(ArtistETL, Input{Retries: 1})

	s.Require().True(s.env.IsWorkflowCompleted())
	err := s.env.GetWorkflowError()
	s.Require().Error(err)
	s.Contains(err.Error(), "sink down")
	s.Equal(int32(2), loadAttempts.Load())
	s.NotContains(s.steps, pipeline.StepStore)

	s.Require().NotNil(s.finished)
	s.Equal(model.RunStatusFailed, s.finished.Status)
	s.Require().NotNil(s.finished.Result)
	s.Contains(s.finished.Result.Error, "workflow: load")
	last := s.finished.Result.Phases[len(s.finished.Result.Phases)-1]
	s.Equal(pipeline.StepLoad, last.Name)
	s.Equal(model.PhaseStatusFailed, last.Status)
}

func (s *workflowSuite) TestArtistETL_BranchFailureSkipsMerge() {
	s.env.OnActivity(s.acts.RunStep, mock.Anything, mock.Anything).Return(
		func(_ context.Context, in StepInput) (model.PhaseResult, error) {
			s.record(in.Step)
			if in.Step == pipeline.StepExtractCeremony {
				return model.PhaseResult{}, errors.New("extract: ceremony: empty dataset")
			}
			return model.PhaseResult{Name: in.Step, Status: model.PhaseStatusComplete}, nil
		})

	s.env.ExecuteWorkflow(ArtistETL, Input{})

	s.Require().True(s.env.IsWorkflowCompleted())
	s.Require().Error(s.env.GetWorkflowError())
	s.NotContains(s.steps, pipeline.StepMerge)
	s.NotContains(s.steps, pipeline.StepTransformCeremony)
	s.Require().NotNil(s.finished)
	s.Equal(model.RunStatusFailed, s.finished.Status)
	s.Contains(s.finished.Result.Error, "empty dataset")
}

func TestInput_WithDefaults(t *testing.T) {
	in := Input{Retries: -2}.withDefaults()
	assert.Equal(t, 0, in.Retries)
	assert.Positive(t, in.RetryInterval)
	assert.Positive(t, in.StepTimeout)
}

func TestMetaInt(t *testing.T) {
	assert.Equal(t, 3, metaInt(map[string]any{"n": 3}, "n"))
	assert.Equal(t, 3, metaInt(map[string]any{"n": int64(3)}, "n"))
	assert.Equal(t, 3, metaInt(map[string]any{"n": float64(3)}, "n"))
	assert.Equal(t, 0, metaInt(map[string]any{"n": "3"}, "n"))
	assert.Equal(t, 0, metaInt(nil, "n"))
	require.Len(t, branches, 3)
}
