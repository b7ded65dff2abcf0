package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/sells-group/artist-etl/internal/workflow"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Host the artist ETL workflow on a Temporal task queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("worker"); err != nil {
			return err
		}

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

		c, err := workflow.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
		if err != nil {
			return err
		}
		defer c.Close()

		w := workflow.NewWorker(c, cfg.Temporal.TaskQueue, workflow.NewActivities(stages, st, cfg.Pipeline.WorkDir))
		zap.L().Info("temporal worker started",
			zap.String("host_port", cfg.Temporal.HostPort),
			zap.String("task_queue", cfg.Temporal.TaskQueue),
		)
		return w.Run(worker.InterruptCh())
	},
}

var triggerWait bool

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Start one artist ETL workflow execution",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("trigger"); err != nil {
			return err
		}

		c, err := workflow.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
		if err != nil {
			return err
		}
		defer c.Close()

		run, err := workflow.Start(ctx, c, cfg.Temporal.TaskQueue, triggerInput())
		if err != nil {
			return err
		}
		zap.L().Info("workflow started",
			zap.String("workflow_id", run.GetID()),
			zap.String("run_id", run.GetRunID()),
		)
		if !triggerWait {
			return nil
		}

		var result json.RawMessage
		if err := run.Get(ctx, &result); err != nil {
			return eris.Wrap(err, "workflow failed")
		}
		_, err = os.Stdout.Write(append(result, '\n'))
		return err
	},
}

func triggerInput() workflow.Input {
	timeout := cfg.Pipeline.StepTimeout
	if timeout <= 0 {
		timeout = time.Hour
	}
	return workflow.Input{
		Retries:       cfg.Pipeline.Retries,
		RetryInterval: cfg.Pipeline.RetryDelay,
		StepTimeout:   timeout,
	}
}

func init() {
	triggerCmd.Flags().BoolVar(&triggerWait, "wait", false, "block until the workflow finishes and print its result")
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(triggerCmd)
}
