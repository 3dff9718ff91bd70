package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	var rawParams []string

	cmd := &cobra.Command{
		Use:   "validate <spec-name>",
		Short: "Validate every statement of a spec",
		Args:  cobra.ExactArgs(1),
		Example: `  # Validate with strict warning escalation
  dataops validate iceberg.reports.daily_sales --strict --param target_date=2025-01-15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(rawParams)
			if err != nil {
				return err
			}

			cc, cleanup, err := NewCommandContext(cmd, ContextOptions{NoStore: true})
			if err != nil {
				return err
			}
			defer cleanup()

			results, err := cc.Engine.ValidateSpec(args[0], params)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"PHASE", "STATEMENT", "VALID", "DETAIL"})

			invalid := 0
			for _, r := range results {
				detail := r.Error
				if r.Valid && len(r.Warnings) > 0 {
					for i, w := range r.Warnings {
						if i > 0 {
							detail += "; "
						}
						detail += w.Message
					}
				}
				if !r.Valid {
					invalid++
				}
				t.AppendRow(table.Row{string(r.Phase), r.StatementName, r.Valid, detail})
			}
			t.Render()

			if invalid > 0 {
				return fmt.Errorf("%d statement(s) failed validation", invalid)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&rawParams, "param", nil, "parameter value as key=value (repeatable)")
	return cmd
}
