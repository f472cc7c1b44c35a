package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"statedash/internal/dataprocessing"
)

// Chart image formats
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

var barColor = color.RGBA{R: 37, G: 99, B: 235, A: 255}

// ChartSize is the rendered image size
var ChartSize = struct{ Width, Height vg.Length }{Width: 8 * vg.Inch, Height: 4 * vg.Inch}

// WriteBarChart draws pairs as a vertical bar chart with value labels and writes
// it to w in the given image format. An empty pair list draws an empty frame.
func WriteBarChart(w io.Writer, title string, pairs []dataprocessing.AggregatePair, format string) error {
	if format != FormatPNG && format != FormatSVG {
		return fmt.Errorf("unsupported chart format: %q", format)
	}

	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.Text = "Average value"
	p.Add(plotter.NewGrid())

	if len(pairs) > 0 {
		values := make(plotter.Values, len(pairs))
		labels := make([]string, len(pairs))
		for i, pair := range pairs {
			values[i] = pair.Average
			labels[i] = pair.Label
		}

		bars, err := plotter.NewBarChart(values, vg.Points(28))
		if err != nil {
			return fmt.Errorf("failed to build bar chart: %w", err)
		}
		bars.Color = barColor
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)

		p.NominalX(labels...)
		p.X.Tick.Label.Rotation = math.Pi / 6
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter

		xys := make([]plotter.XY, len(pairs))
		texts := make([]string, len(pairs))
		for i, v := range values {
			xys[i] = plotter.XY{X: float64(i), Y: v}
			texts[i] = FormatNumber(v, 1)
		}
		valueLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
		if err != nil {
			return fmt.Errorf("failed to build value labels: %w", err)
		}
		p.Add(valueLabels)

		if p.Y.Min > 0 {
			p.Y.Min = 0
		}
		if p.Y.Max > 0 {
			p.Y.Max *= 1.1
		}
	}

	writer, err := p.WriterTo(ChartSize.Width, ChartSize.Height, format)
	if err != nil {
		return fmt.Errorf("failed to create %s canvas: %w", format, err)
	}
	if _, err := writer.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}
