package workflow

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/sells-group/artist-etl/internal/model"
	"github.com/sells-group/artist-etl/internal/pipeline"
	"github.com/sells-group/artist-etl/internal/store"
)

func newActivities(t *testing.T) (*Activities, *store.SQLiteStore, *testsuite.TestActivityEnvironment) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	acts := NewActivities(&pipeline.Stages{}, st, t.TempDir())
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(acts)
	return acts, st, env
}

func TestActivities_Lifecycle(t *testing.T) {
	acts, st, env := newActivities(t)
	ctx := context.Background()

	val, err := env.ExecuteActivity(acts.StartRun)
	require.NoError(t, err)
	var info RunInfo
	require.NoError(t, val.Get(&info))
	assert.NotEmpty(t, info.RunID)
	assert.DirExists(t, info.Dir)

	// Store without an uploader is a no-op step.
	val, err = env.ExecuteActivity(acts.RunStep, StepInput{RunID: info.RunID, Dir: info.Dir, Step: pipeline.StepStore})
	require.NoError(t, err)
	var phase model.PhaseResult
	require.NoError(t, val.Get(&phase))
	assert.Equal(t, model.PhaseStatusComplete, phase.Status)
	assert.Equal(t, true, phase.Metadata["skipped"])

	_, err = env.ExecuteActivity(acts.FinishRun, FinishInput{
		RunID:  info.RunID,
		Status: model.RunStatusComplete,
		Result: &model.RunResult{Phases: []model.PhaseResult{phase}},
	})
	require.NoError(t, err)

	run, err := st.GetRun(ctx, info.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)

	phases, err := st.ListPhases(ctx, info.RunID)
	require.NoError(t, err)
	require.Len(t, phases, 1)
	assert.Equal(t, pipeline.StepStore, phases[0].Name)
}

func TestActivities_RunStepFailure(t *testing.T) {
	acts, _, env := newActivities(t)

	_, err := env.ExecuteActivity(acts.RunStep, StepInput{RunID: "r", Dir: t.TempDir(), Step: pipeline.StepMerge})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file")
}

func TestActivities_UnknownStep(t *testing.T) {
	acts, _, env := newActivities(t)

	_, err := env.ExecuteActivity(acts.RunStep, StepInput{RunID: "r", Step: "publish"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown step "publish"`)
}

func TestActivities_FinishUnknownRun(t *testing.T) {
	acts, _, env := newActivities(t)

	_, err := env.ExecuteActivity(acts.FinishRun, FinishInput{RunID: "missing", Status: model.RunStatusFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestNewActivities_DefaultWorkDir(t *testing.T) {
	acts := NewActivities(nil, nil, "")
	assert.NotEmpty(t, acts.workDir)
}
