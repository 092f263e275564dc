package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/JaderDias/movingmedian"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/dqsift/dqsift/pkg/artifact"
)

const (
	chartWidth  = 10 * vg.Inch
	chartHeight = 4 * vg.Inch
)

var (
	barColor      = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	trendColor    = color.RGBA{R: 255, G: 140, B: 0, A: 255}
	livetimeColor = color.RGBA{R: 178, G: 34, B: 34, A: 255}
)

// Options control chart assembly.
type Options struct {
	// Title replaces the default chart title when non-empty.
	Title string

	// Smooth is the moving-median window applied to the log-likelihood
	// sequence for the trend line. Windows below 2 disable the trend.
	Smooth int
}

// Render draws the flag likelihood chart for detector and writes it to
// path. The image format follows the file extension, .png or .svg.
func Render(dl artifact.DetectorLikelihood, detector, path string, opts Options) error {
	flags, loglr, active := flagSeries(dl)

	title := opts.Title
	if title == "" {
		title = fmt.Sprintf("%s DQ flag log likelihood", detector)
	}

	base, err := flagPlot(title, flags, loglr, opts.Smooth)
	if err != nil {
		return err
	}
	// A single flag leaves a zero-width X range, which the linear scale
	// cannot map. Widen it around the lone bar.
	if base.X.Max <= base.X.Min {
		base.X.Min -= 0.5
		base.X.Max += 0.5
	}

	overlay, line, err := livetimePlot(active, base.X.Min, base.X.Max)
	if err != nil {
		return err
	}
	base.Legend.Add("% livetime active", line)

	return writeChart(path, base, overlay)
}

// flagSeries flattens the per-flag table into parallel slices: sorted
// flag names, the flag-on log likelihood ratio, and the percentage of
// livetime the flag was on. A flag with no observed livetime reports
// zero percent.
func flagSeries(dl artifact.DetectorLikelihood) (flags []string, loglr, active []float64) {
	flags = dl.FlagNames()
	loglr = make([]float64, len(flags))
	active = make([]float64, len(flags))
	for i, name := range flags {
		fl := dl.Flags[name]
		loglr[i] = fl.LogLR[1]
		if total := fl.Livetime[0] + fl.Livetime[1]; total > 0 {
			active[i] = 100 * fl.Livetime[1] / total
		}
	}
	return flags, loglr, active
}

// flagPlot builds the bar chart of per-flag log likelihood, one nominal
// X position per flag, with an optional moving-median trend line.
func flagPlot(title string, flags []string, loglr []float64, smoothWindow int) (*plot.Plot, error) {
	p, err := plot.New()
	if err != nil {
		return nil, fmt.Errorf("render: new plot: %w", err)
	}
	p.Title.Text = title
	p.Y.Label.Text = "log likelihood ratio (flag on)"
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	bars, err := plotter.NewBarChart(plotter.Values(loglr), vg.Points(20))
	if err != nil {
		return nil, fmt.Errorf("render: bar chart: %w", err)
	}
	bars.Color = barColor
	p.Add(bars)
	p.NominalX(flags...)
	p.Legend.Add("log likelihood (on)", bars)
	p.Legend.Top = true

	if smoothWindow > 1 {
		trend, err := plotter.NewLine(indexedXYs(smooth(loglr, smoothWindow)))
		if err != nil {
			return nil, fmt.Errorf("render: trend line: %w", err)
		}
		trend.LineStyle.Color = trendColor
		trend.LineStyle.Width = vg.Points(1.5)
		p.Add(trend)
		p.Legend.Add(fmt.Sprintf("median trend, window %d", smoothWindow), trend)
	}
	return p, nil
}

// livetimePlot builds the transparent overlay holding the percent-active
// line. Its X range is forced to the base plot's so the two coordinate
// systems line up, and its hidden Y axis spans 0 to 105 percent.
func livetimePlot(active []float64, xmin, xmax float64) (*plot.Plot, *plotter.Line, error) {
	p, err := plot.New()
	if err != nil {
		return nil, nil, fmt.Errorf("render: new overlay: %w", err)
	}
	p.HideAxes()
	p.BackgroundColor = color.Transparent

	line, points, err := plotter.NewLinePoints(indexedXYs(active))
	if err != nil {
		return nil, nil, fmt.Errorf("render: livetime line: %w", err)
	}
	line.LineStyle.Color = livetimeColor
	line.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	points.GlyphStyle.Color = livetimeColor
	p.Add(line, points)

	scale, err := percentScale(xmax)
	if err != nil {
		return nil, nil, err
	}
	p.Add(scale)

	// Force the ranges after Add: every Add widens them from the data.
	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min, p.Y.Max = 0, 105
	return p, line, nil
}

// percentScale marks the livetime scale at the right edge of the data
// area, in the overlay's own coordinate space.
func percentScale(xmax float64) (*plotter.Labels, error) {
	marks := plotter.XYLabels{
		XYs:    plotter.XYs{{X: xmax, Y: 0}, {X: xmax, Y: 50}, {X: xmax, Y: 100}},
		Labels: []string{"0%", "50%", "100%"},
	}
	labels, err := plotter.NewLabels(marks)
	if err != nil {
		return nil, fmt.Errorf("render: percent scale: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Color = livetimeColor
		labels.TextStyle[i].XAlign = draw.XRight
	}
	return labels, nil
}

// writeChart draws base onto a fresh canvas, overlays the livetime plot
// inside base's data area, and writes the result to path.
func writeChart(path string, base, overlay *plot.Plot) error {
	var (
		out io.WriterTo
		dc  draw.Canvas
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		img := vgimg.New(chartWidth, chartHeight)
		dc = draw.New(img)
		out = vgimg.PngCanvas{Canvas: img}
	case ".svg":
		c := vgsvg.New(chartWidth, chartHeight)
		dc = draw.New(c)
		out = c
	default:
		return fmt.Errorf("render: unsupported output format %q, use .png or .svg", ext)
	}

	base.Draw(dc)
	overlay.Draw(base.DataCanvas(dc))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: create %s: %w", path, err)
	}
	if _, err := out.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("render: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("render: close %s: %w", path, err)
	}
	return nil
}

// indexedXYs places vals at consecutive integer X positions, matching
// the nominal X layout of the bar chart.
func indexedXYs(vals []float64) plotter.XYs {
	xys := make(plotter.XYs, len(vals))
	for i, v := range vals {
		xys[i].X = float64(i)
		xys[i].Y = v
	}
	return xys
}

// smooth returns the trailing moving median of vals over the given
// window. Windows below 2 return an unmodified copy.
func smooth(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	if window < 2 {
		copy(out, vals)
		return out
	}
	mm := movingmedian.NewMovingMedian(window)
	for i, v := range vals {
		mm.Push(v)
		out[i] = mm.Median()
	}
	return out
}
