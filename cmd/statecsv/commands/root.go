package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"statedash/internal/config"
	"statedash/internal/dataprocessing"
	"statedash/internal/infrastructure"
	"statedash/internal/render"
	"statedash/internal/sources"
)

// options holds the flags shared by every command
type options struct {
	file    string
	url     string
	verbose bool
	noColor bool

	cfg    *config.Config
	logger *slog.Logger
}

// dataset is a parsed input ready for the commands
type dataset struct {
	Records []dataprocessing.Record
	Label   string
	Stats   dataprocessing.ParseStats
}

// Execute runs the statecsv command line
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "statecsv",
		Short:         "Summarize state, year, indicator and value CSV datasets",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.file != "" && opts.url != "" {
				return fmt.Errorf("--file and --url are mutually exclusive")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg

			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			logger := infrastructure.NewLoggerWithWriter(cmd.ErrOrStderr(), config.LoggingConfig{
				Level:  level,
				Format: "text",
			})
			opts.logger = infrastructure.WithComponent(logger, "statecsv")
			cmd.SetContext(infrastructure.EnsureTraceID(cmd.Context()))

			if opts.noColor {
				color.NoColor = true
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "local .csv, .txt or .xlsx file")
	root.PersistentFlags().StringVarP(&opts.url, "url", "u", "", "http(s) URL of a CSV document")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	root.AddCommand(summaryCmd(opts), groupsCmd(opts), previewCmd(opts), chartCmd(opts))
	return root
}

// load reads the dataset selected by the flags, falling back to the sample
func (o *options) load(ctx context.Context) (*dataset, error) {
	var (
		text  string
		label string
		err   error
	)

	switch {
	case o.file != "":
		text, err = sources.NewFileReader(o.cfg.Dataset, o.logger).ReadFile(ctx, o.file)
		label = o.file
	case o.url != "":
		text, err = sources.NewURLFetcher(o.cfg.Dataset, o.logger).Fetch(ctx, o.url)
		label = "URL CSV"
	default:
		text, label = sources.Sample()
	}
	if err != nil {
		return nil, err
	}

	records, stats, err := dataprocessing.ParseWithStats(text)
	if err != nil {
		return nil, err
	}

	o.logger.DebugContext(ctx, "dataset parsed",
		slog.String("label", label),
		slog.Int("accepted", stats.Accepted),
		slog.Int("dropped", stats.Dropped))

	return &dataset{Records: records, Label: label, Stats: stats}, nil
}

func (o *options) viewOptions() render.Options {
	return render.Options{
		TopBars:   o.cfg.Dashboard.TopBars,
		TableRows: o.cfg.Dashboard.TableRows,
	}
}
