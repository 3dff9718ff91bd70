package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	var rawParams []string

	cmd := &cobra.Command{
		Use:   "render <spec-name>",
		Short: "Render a spec's SQL with parameters substituted",
		Args:  cobra.ExactArgs(1),
		Example: `  # Render the main statement and its pre/post hooks
  dataops render iceberg.reports.daily_sales --param target_date=2025-01-15`,
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

			rendered, err := cc.Engine.RenderSQL(args[0], params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, stmt := range rendered.Pre {
				fmt.Fprintf(out, "-- pre: %s\n%s\n\n", stmt.Name, stmt.SQL)
			}
			fmt.Fprintf(out, "-- main\n%s\n", rendered.Main.SQL)
			for _, stmt := range rendered.Post {
				fmt.Fprintf(out, "\n-- post: %s\n%s\n", stmt.Name, stmt.SQL)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&rawParams, "param", nil, "parameter value as key=value (repeatable)")
	return cmd
}
