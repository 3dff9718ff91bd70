package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/1ambda/dataops-platform-sub001/internal/config"
	"github.com/1ambda/dataops-platform-sub001/internal/loader"
	"github.com/1ambda/dataops-platform-sub001/internal/quality"
	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

// NewTestCommand creates the test command.
func NewTestCommand() *cobra.Command {
	var (
		onServer bool
		failFast bool
		target   string
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run data-quality tests from quality spec files",
		Example: `  # Run every quality suite found under the spec directories
  dataops test

  # Run only suites targeting one dataset, stopping at the first failure
  dataops test --target iceberg.reports.daily_sales --fail-fast`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd, ContextOptions{NeedExecutor: !onServer})
			if err != nil {
				return err
			}
			defer cleanup()

			suites, err := loader.DiscoverQualitySpecs(cc.Config.SpecDirs)
			if err != nil {
				return err
			}
			if target != "" {
				filtered := suites[:0]
				for _, s := range suites {
					if s.Target.Name == target {
						filtered = append(filtered, s)
					}
				}
				suites = filtered
			}
			if len(suites) == 0 {
				return fmt.Errorf("no quality specs found")
			}

			var remote quality.RemoteClient
			if onServer {
				if cc.Config.Quality.ServerURL == "" {
					return fmt.Errorf("--server requires quality.server_url in %s", config.ConfigFileName)
				}
				remote = quality.NewHTTPClient(cc.Config.Quality.ServerURL, nil)
			}

			runner := quality.NewRunner(quality.RunnerConfig{
				Executor:    cc.Executor,
				Remote:      remote,
				SampleLimit: cc.Config.Quality.SampleLimit,
				Logger:      cc.Logger,
			})
			opts := quality.RunOptions{
				OnServer: onServer,
				FailFast: failFast || cc.Config.Quality.FailFast,
			}

			failed := 0
			for _, suite := range suites {
				report := runner.RunAll(cmd.Context(), suite, opts)
				printQualityReport(cmd, report)
				if cc.Store != nil {
					if _, err := cc.Store.RecordQuality(cmd.Context(), report); err != nil {
						cc.Logger.Error("failed to record quality report",
							"target", report.Resource, "error", err)
					}
				}
				if report.Status == core.StatusFail || report.Status == core.StatusError {
					failed++
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d quality suite(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&onServer, "server", false, "delegate execution to the quality service")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "skip remaining tests after the first failure")
	cmd.Flags().StringVar(&target, "target", "", "run only suites targeting this spec name")
	return cmd
}

func printQualityReport(cmd *cobra.Command, report *core.QualityReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s): %s\n", report.Resource, report.ExecutedAt, report.Status)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"TEST", "STATUS", "FAILED ROWS", "ELAPSED MS", "DETAIL"})
	for _, r := range report.Results {
		t.AppendRow(table.Row{r.TestName, string(r.Status), r.FailedRows, r.ElapsedMS, r.Error})
	}
	t.Render()
}
