package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var (
		limit   int
		quality bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent pipeline or quality runs",
		Example: `  # Last 20 pipeline runs
  dataops history --limit 20

  # Recent quality runs
  dataops history --quality`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd, ContextOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			if cc.Store == nil {
				return fmt.Errorf("no state database configured")
			}

			out := cmd.OutOrStdout()
			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)

			if quality {
				runs, err := cc.Store.ListQualityRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				t.AppendHeader(table.Row{"STARTED", "TARGET", "STATUS", "PASSED", "FAILED", "ELAPSED MS"})
				for _, r := range runs {
					t.AppendRow(table.Row{
						r.StartedAt.Format(time.RFC3339), r.Target, string(r.Status),
						r.Passed, r.Failed, r.ElapsedMS,
					})
				}
			} else {
				runs, err := cc.Store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				t.AppendHeader(table.Row{"STARTED", "SPEC", "STATUS", "STATEMENTS", "ELAPSED MS", "ERROR"})
				for _, r := range runs {
					status := "ok"
					switch {
					case r.DryRun:
						status = "dry-run"
					case !r.Success:
						status = "failed"
					}
					t.AppendRow(table.Row{
						r.StartedAt.Format(time.RFC3339), r.SpecName, status,
						r.Statements, r.TotalElapsedMS, r.Error,
					})
				}
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	cmd.Flags().BoolVar(&quality, "quality", false, "show quality runs instead of pipeline runs")
	return cmd
}
