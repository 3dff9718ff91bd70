package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/1ambda/dataops-platform-sub001/internal/engine"
	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	var (
		rawParams []string
		skipPre   bool
		skipPost  bool
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "run <spec-name>",
		Short: "Execute a spec's pre, main, and post statements",
		Args:  cobra.ExactArgs(1),
		Example: `  # Run a dataset for one partition
  dataops run iceberg.reports.daily_sales --param target_date=2025-01-15

  # Validate and render without touching the engine
  dataops run iceberg.reports.daily_sales --param target_date=2025-01-15 --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(rawParams)
			if err != nil {
				return err
			}

			opts := ContextOptions{NeedExecutor: !dryRun}
			cc, cleanup, err := NewCommandContext(cmd, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := cc.Engine.Execute(cmd.Context(), args[0], engine.RunOptions{
				Params:   params,
				SkipPre:  skipPre,
				SkipPost: skipPost,
				DryRun:   dryRun,
			})
			if err != nil {
				return err
			}

			printPipelineResult(cmd, result)
			if !result.Success {
				return fmt.Errorf("run failed: %s", result.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&rawParams, "param", nil, "parameter value as key=value (repeatable)")
	cmd.Flags().BoolVar(&skipPre, "skip-pre", false, "skip the pre phase")
	cmd.Flags().BoolVar(&skipPost, "skip-post", false, "skip the post phase")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render and validate only, execute nothing")
	return cmd
}

func printPipelineResult(cmd *cobra.Command, result *core.PipelineResult) {
	out := cmd.OutOrStdout()

	if result.DryRun {
		fmt.Fprintf(out, "%s: %s\n", result.SpecName, result.Message)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"PHASE", "STATEMENT", "STATUS", "ROWS", "ELAPSED MS", "ERROR"})

	appendRow := func(r core.ExecutionResult) {
		status := "ok"
		if !r.Success {
			status = "failed"
		}
		t.AppendRow(table.Row{string(r.Phase), r.StatementName, status, r.RowCount, r.ElapsedMS, r.Error})
	}
	for _, r := range result.PreResults {
		appendRow(r)
	}
	if result.MainResult != nil {
		appendRow(*result.MainResult)
	}
	for _, r := range result.PostResults {
		appendRow(r)
	}
	t.Render()

	if result.Success {
		fmt.Fprintf(out, "%s succeeded in %d ms\n", result.SpecName, result.TotalElapsedMS)
	}
}
