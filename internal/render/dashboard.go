package render

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"statedash/internal/dataprocessing"
)

// Dashboard presentation defaults
const (
	DefaultTopBars   = 8
	DefaultTableRows = 20

	// EmptyMessage replaces the bar lists when there is nothing to show
	EmptyMessage = "No rows to display."
)

// Options controls how much of a dataset the view shows
type Options struct {
	TopBars   int
	TableRows int
}

func (o Options) withDefaults() Options {
	if o.TopBars <= 0 {
		o.TopBars = DefaultTopBars
	}
	if o.TableRows <= 0 {
		o.TableRows = DefaultTableRows
	}
	return o
}

// KPI is one headline card
type KPI struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Bar is one row of a horizontal bar list. Width is a percentage of the
// largest value in the same list.
type Bar struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
	Width   float64 `json:"width"`
	Count   int     `json:"count"`
}

// TableRow is one formatted record of the preview table
type TableRow struct {
	State     string `json:"state"`
	Year      string `json:"year"`
	Indicator string `json:"indicator"`
	Value     string `json:"value"`
}

// View is everything the dashboard page needs to render a dataset
type View struct {
	Label     string                 `json:"label"`
	Status    string                 `json:"status"`
	Empty     bool                   `json:"empty"`
	Summary   dataprocessing.Summary `json:"summary"`
	KPIs      []KPI                  `json:"kpis"`
	YearBars  []Bar                  `json:"year_bars"`
	StateBars []Bar                  `json:"state_bars"`
	Rows      []TableRow             `json:"rows"`
	TotalRows int                    `json:"total_rows"`
}

// StatusLine is the message shown after a successful load
func StatusLine(count int, label string) string {
	return fmt.Sprintf("Showing %d records from %s.", count, label)
}

// Build computes the dashboard view for records
func Build(records []dataprocessing.Record, label string, opts Options) View {
	opts = opts.withDefaults()

	summary, err := dataprocessing.Summarize(records)
	view := View{
		Label:     label,
		Status:    StatusLine(len(records), label),
		Empty:     err != nil,
		Summary:   summary,
		KPIs:      buildKPIs(summary),
		TotalRows: len(records),
		YearBars:  []Bar{},
		StateBars: []Bar{},
		Rows:      buildRows(records, opts.TableRows),
	}
	if view.Empty {
		return view
	}

	view.YearBars = Bars(dataprocessing.GroupAverage(records, dataprocessing.GroupByYear), opts.TopBars)
	view.StateBars = Bars(dataprocessing.GroupAverage(records, dataprocessing.GroupByState), opts.TopBars)
	return view
}

func buildKPIs(s dataprocessing.Summary) []KPI {
	average := "n/a"
	if !s.Empty {
		average = FormatNumber(s.AverageValue, 1)
	}
	return []KPI{
		{Label: "Rows", Value: FormatCount(s.Rows)},
		{Label: "States", Value: FormatCount(s.States)},
		{Label: "Indicators", Value: FormatCount(s.Indicators)},
		{Label: "Average Value", Value: average},
		{Label: "Years Covered", Value: FormatCount(s.Years)},
	}
}

// Bars keeps the first limit pairs and scales them against the largest shown value.
// A non-positive maximum gives every bar zero width.
func Bars(pairs []dataprocessing.AggregatePair, limit int) []Bar {
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	if len(pairs) == 0 {
		return []Bar{}
	}

	values := make([]float64, len(pairs))
	for i, p := range pairs {
		values[i] = p.Average
	}
	maxValue := floats.Max(values)

	bars := make([]Bar, len(pairs))
	for i, p := range pairs {
		bars[i] = Bar{
			Label:   p.Label,
			Value:   p.Average,
			Display: FormatNumber(p.Average, 1),
			Width:   barWidth(p.Average, maxValue),
			Count:   p.Count,
		}
	}
	return bars
}

func barWidth(value, maxValue float64) float64 {
	if maxValue <= 0 {
		return 0
	}
	w := value / maxValue * 100
	switch {
	case w < 0:
		return 0
	case w > 100:
		return 100
	}
	return w
}

func buildRows(records []dataprocessing.Record, limit int) []TableRow {
	if len(records) > limit {
		records = records[:limit]
	}
	rows := make([]TableRow, len(records))
	for i, r := range records {
		rows[i] = TableRow{
			State:     r.State,
			Year:      strconv.Itoa(r.Year),
			Indicator: r.Indicator,
			Value:     FormatNumber(r.Value, 1),
		}
	}
	return rows
}
