package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/artist-etl/internal/config"
	"github.com/sells-group/artist-etl/internal/model"
)

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestInitStore_SQLite(t *testing.T) {
	withConfig(t, &config.Config{Store: config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "runs.db"),
	}})

	ctx := context.Background()
	st, err := initStore(ctx)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	run, err := st.CreateRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRunning, run.Status)
}

func TestInitStore_UnknownDriver(t *testing.T) {
	withConfig(t, &config.Config{Store: config.StoreConfig{Driver: "mysql"}})

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestKnowledgeLimiters(t *testing.T) {
	withConfig(t, &config.Config{Knowledge: config.KnowledgeConfig{
		Endpoint: "https://query.wikidata.org/sparql",
		Rate:     2,
	}})
	limiters := knowledgeLimiters()
	require.Contains(t, limiters, "query.wikidata.org")
	assert.InDelta(t, 2.0, float64(limiters["query.wikidata.org"].Limit()), 0.001)

	cfg.Knowledge.Rate = 0
	assert.Nil(t, knowledgeLimiters())
}

func TestLoadGenres(t *testing.T) {
	genres, err := loadGenres("")
	require.NoError(t, err)
	assert.Nil(t, genres)

	path := filepath.Join(t.TempDir(), "genres.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Rock:\n  - punk\n  - grunge\n"), 0o644))
	genres, err = loadGenres(path)
	require.NoError(t, err)
	assert.Equal(t, "Rock", genres["punk"])

	_, err = loadGenres(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuildStages_CeremonyUnreachable(t *testing.T) {
	withConfig(t, &config.Config{
		Ceremony: config.CeremonyConfig{DatabaseURL: "not a url"},
		Sink:     config.SinkConfig{DatabaseURL: "not a url", Policy: "replace"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, cleanup, err := buildStages(ctx)
	cleanup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect ceremony database")
}

func TestTriggerInput(t *testing.T) {
	withConfig(t, &config.Config{Pipeline: config.PipelineConfig{Retries: 1, RetryDelay: time.Second}})

	in := triggerInput()
	assert.Equal(t, 1, in.Retries)
	assert.Equal(t, time.Second, in.RetryInterval)
	assert.Equal(t, time.Hour, in.StepTimeout)
}
