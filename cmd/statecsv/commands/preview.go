package commands

import (
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"statedash/internal/render"
)

func previewCmd(opts *options) *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the first rows of a dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}

			viewOpts := opts.viewOptions()
			if rows > 0 {
				viewOpts.TableRows = rows
			}
			view := render.Build(ds.Records, ds.Label, viewOpts)
			out := cmd.OutOrStdout()

			if len(view.Rows) == 0 {
				color.New(color.FgYellow).Fprintln(out, render.EmptyMessage)
				return nil
			}

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"State", "Year", "Indicator", "Value"})
			for _, row := range view.Rows {
				table.Append([]string{row.State, row.Year, row.Indicator, row.Value})
			}
			table.Render()

			color.New(color.Faint).Fprintf(out, "Showing %d of %d rows\n", len(view.Rows), view.TotalRows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 0, "number of rows to show (0 uses the dashboard default)")
	return cmd
}
