package commands

import (
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"statedash/internal/dataprocessing"
	"statedash/internal/render"
)

func groupsCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:       "groups [state|year]",
		Short:     "Print average values grouped by state or year, best first",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(dataprocessing.GroupByState), string(dataprocessing.GroupByYear)},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := dataprocessing.ParseGroupKey(args[0])
			if err != nil {
				return err
			}

			ds, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}

			if limit == 0 {
				limit = opts.cfg.Dashboard.TopBars
			}
			bars := render.Bars(dataprocessing.GroupAverage(ds.Records, key), limit)
			out := cmd.OutOrStdout()

			color.New(color.FgCyan, color.Bold).Fprintf(out, "Average value by %s (%s)\n", key, ds.Label)
			if len(bars) == 0 {
				color.New(color.FgYellow).Fprintln(out, render.EmptyMessage)
				return nil
			}

			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{titleCase(string(key)), "Average", "Rows"})
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			for _, bar := range bars {
				table.Append([]string{bar.Label, bar.Display, strconv.Itoa(bar.Count)})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of groups to show (0 uses the dashboard default, -1 shows all)")
	return cmd
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
