package commands

import (
	"encoding/json"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/1ambda/dataops-platform-sub001/internal/registry"
	"github.com/1ambda/dataops-platform-sub001/pkg/core"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var filters registry.Filters

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered dataset and metric specs",
		Example: `  # List every spec
  dataops list

  # Filter by tag and owner
  dataops list --tag daily --owner data-eng

  # Machine-readable output
  dataops list --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd, ContextOptions{NoStore: true})
			if err != nil {
				return err
			}
			defer cleanup()

			specs := cc.Registry.Search(filters)
			if cc.Config.Output == "json" {
				return listJSON(cmd, specs)
			}
			return listTable(cmd, specs)
		},
	}

	cmd.Flags().StringVar(&filters.Tag, "tag", "", "filter by tag")
	cmd.Flags().StringVar(&filters.Domain, "domain", "", "filter by domain")
	cmd.Flags().StringVar(&filters.Owner, "owner", "", "filter by owner")
	cmd.Flags().StringVar(&filters.Team, "team", "", "filter by team")
	cmd.Flags().StringVar(&filters.Catalog, "catalog", "", "filter by catalog")
	cmd.Flags().StringVar(&filters.Schema, "schema", "", "filter by schema")
	return cmd
}

func listTable(cmd *cobra.Command, specs []*core.Spec) error {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"NAME", "KIND", "OWNER", "TEAM", "TAGS", "DEPENDS ON"})
	for _, spec := range specs {
		t.AppendRow(table.Row{
			spec.Name,
			string(spec.Kind),
			spec.Owner,
			spec.Team,
			strings.Join(spec.Tags, ", "),
			strings.Join(spec.DependsOn, ", "),
		})
	}
	t.Render()
	return nil
}

func listJSON(cmd *cobra.Command, specs []*core.Spec) error {
	type row struct {
		Name      string   `json:"name"`
		Kind      string   `json:"kind"`
		Owner     string   `json:"owner,omitempty"`
		Team      string   `json:"team,omitempty"`
		Tags      []string `json:"tags,omitempty"`
		DependsOn []string `json:"depends_on,omitempty"`
		FilePath  string   `json:"file_path"`
	}
	rows := make([]row, 0, len(specs))
	for _, spec := range specs {
		rows = append(rows, row{
			Name: spec.Name, Kind: string(spec.Kind),
			Owner: spec.Owner, Team: spec.Team,
			Tags: spec.Tags, DependsOn: spec.DependsOn,
			FilePath: spec.FilePath,
		})
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
