package commands

import (
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"statedash/internal/render"
)

func summaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the headline KPIs of a dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}

			view := render.Build(ds.Records, ds.Label, opts.viewOptions())
			out := cmd.OutOrStdout()

			color.New(color.FgCyan, color.Bold).Fprintln(out, view.Status)
			if ds.Stats.Dropped > 0 {
				color.New(color.FgYellow).Fprintf(out, "Skipped %d rows with missing or invalid fields\n", ds.Stats.Dropped)
			}

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"Metric", "Value"})
			for _, kpi := range view.KPIs {
				table.Append([]string{kpi.Label, kpi.Value})
			}
			table.Render()
			return nil
		},
	}
}
