package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/artist-etl/internal/model"
	"github.com/sells-group/artist-etl/internal/store"
)

// statsWindow bounds how many runs `runs stats` scans.
const statsWindow = 10000

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect ETL run history",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pipeline runs, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		filter := store.RunFilter{Status: model.RunStatus(status), Limit: limit, Offset: offset}

		return withStore(cmd, func(ctx context.Context, st store.Store) error {
			runs, err := st.ListRuns(ctx, filter)
			if err != nil {
				return eris.Wrap(err, "runs list")
			}
			if len(runs) == 0 {
				fmt.Fprintln(os.Stderr, "No runs found.")
				return nil
			}
			formatRunsList(os.Stdout, runs)
			return nil
		})
	},
}

type runDetail struct {
	*model.Run
	Phases []model.RunPhase `json:"phases"`
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a run and its phases as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		return withStore(cmd, func(ctx context.Context, st store.Store) error {
			run, err := st.GetRun(ctx, id)
			if err != nil {
				return eris.Wrap(err, "runs show")
			}
			phases, err := st.ListPhases(ctx, id)
			if err != nil {
				return eris.Wrap(err, "runs show: phases")
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(runDetail{Run: run, Phases: phases})
		})
	},
}

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recent runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		since, _ := cmd.Flags().GetDuration("since")
		var after time.Time
		if since > 0 {
			after = time.Now().Add(-since)
		}

		return withStore(cmd, func(ctx context.Context, st store.Store) error {
			runs, err := st.ListRuns(ctx, store.RunFilter{Limit: statsWindow})
			if err != nil {
				return eris.Wrap(err, "runs stats")
			}
			formatRunStats(os.Stdout, computeRunStats(runs, after))
			return nil
		})
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "only runs in this status (running, complete, failed)")
	runsListCmd.Flags().Int("limit", 50, "max runs to print")
	runsListCmd.Flags().Int("offset", 0, "runs to skip")
	runsStatsCmd.Flags().Duration("since", 24*time.Hour, "only runs created within this window; 0 for all")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// withStore opens and migrates the run store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(context.Context, store.Store) error) error {
	ctx := cmd.Context()
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	return fn(ctx, st)
}

type runStats struct {
	Total      int
	Complete   int
	Failed     int
	Running    int
	RowsLoaded int64
	AvgDurSecs float64
}

// computeRunStats aggregates runs created at or after the cutoff. A zero
// cutoff keeps every run. Durations average over complete runs only.
func computeRunStats(runs []model.Run, after time.Time) runStats {
	var (
		s       runStats
		elapsed time.Duration
	)
	for _, r := range runs {
		if r.CreatedAt.Before(after) {
			continue
		}
		s.Total++
		switch r.Status {
		case model.RunStatusFailed:
			s.Failed++
		case model.RunStatusComplete:
			s.Complete++
			elapsed += r.UpdatedAt.Sub(r.CreatedAt)
			if r.Result != nil {
				s.RowsLoaded += r.Result.RowsLoaded
			}
		default:
			s.Running++
		}
	}
	if s.Complete > 0 {
		s.AvgDurSecs = elapsed.Seconds() / float64(s.Complete)
	}
	return s
}

const maxErrWidth = 40

func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tROWS\tSKIPPED\tCREATED\tDURATION\tERROR")
	for _, r := range runs {
		res := r.Result
		if res == nil {
			res = &model.RunResult{}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			truncateID(r.ID), r.Status, res.RowsLoaded, res.SkippedNames,
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second),
			ellipsize(res.Error, maxErrWidth))
	}
	_ = w.Flush()
}

func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, line := range []struct {
		label string
		value any
	}{
		{"Total runs", s.Total},
		{"Complete", s.Complete},
		{"Failed", s.Failed},
		{"Running", s.Running},
		{"Rows loaded", s.RowsLoaded},
	} {
		fmt.Fprintf(w, "%s:\t%v\n", line.label, line.value)
	}
	if s.AvgDurSecs > 0 {
		fmt.Fprintf(w, "Avg duration:\t%.1fs\n", s.AvgDurSecs)
	}
	_ = w.Flush()
}

func ellipsize(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

// truncateID shortens a UUID to its first group.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
