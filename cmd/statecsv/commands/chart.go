package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"statedash/internal/dataprocessing"
	"statedash/internal/render"
)

func chartCmd(opts *options) *cobra.Command {
	var (
		output string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "chart [state|year]",
		Short: "Draw a bar chart of group averages to a .png or .svg file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := dataprocessing.ParseGroupKey(args[0])
			if err != nil {
				return err
			}

			format := strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
			if format != render.FormatPNG && format != render.FormatSVG {
				return fmt.Errorf("output must end in .png or .svg: %s", output)
			}

			ds, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}

			if limit == 0 {
				limit = opts.cfg.Dashboard.TopBars
			}
			pairs := dataprocessing.GroupAverage(ds.Records, key)
			if limit > 0 && len(pairs) > limit {
				pairs = pairs[:limit]
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			title := fmt.Sprintf("Average value by %s", key)
			if err := render.WriteBarChart(f, title, pairs, format); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Wrote %d bars to %s\n", len(pairs), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "out", "o", "chart.png", "output file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of groups to draw (0 uses the dashboard default, -1 draws all)")
	return cmd
}
