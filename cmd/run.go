package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/artist-etl/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the artist ETL once in-process",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("run"); err != nil {
			return err
		}

		// Init store
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		stages, cleanup, err := buildStages(ctx)
		defer cleanup()
		if err != nil {
			return err
		}

		engine := pipeline.NewEngine(stages, st, pipeline.EngineConfig{
			WorkDir:    cfg.Pipeline.WorkDir,
			Retries:    cfg.Pipeline.Retries,
			RetryDelay: cfg.Pipeline.RetryDelay,
		})

		result, err := engine.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("artist etl complete",
			zap.Int64("rows_loaded", result.RowsLoaded),
			zap.Int("skipped_names", result.SkippedNames),
		)

		// Print result JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the run-tracking tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}
		zap.L().Info("store migrated", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
}
