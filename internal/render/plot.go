// Package render draws ISI_N distributions on log-log axes.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// ErrUnsupportedFormat is returned for an image format the renderer cannot write.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Curve is one ISI_N distribution.
type Curve struct {
	Label string
	X     []float64
	Y     []float64
}

// Axes holds the decade limits of both log axes.
type Axes struct {
	XMinExp float64
	XMaxExp float64
	YMinExp float64
	YMaxExp float64
}

// DefaultAxes covers 0.1 ms .. 10 s of ISI_N and probabilities down to 1e-7.
func DefaultAxes() Axes {
	return Axes{XMinExp: -1, XMaxExp: 4, YMinExp: -7, YMaxExp: 0}
}

// Figure is everything a renderer needs for one chart.
type Figure struct {
	Curves      []Curve
	ThresholdMs *float64
	Axes        Axes
}

// Renderer writes a figure to w.
type Renderer interface {
	Render(w io.Writer, fig Figure) error
	ContentType() string
}

// Plot renders with gonum/plot.
type Plot struct {
	Format string
	Width  vg.Length
	Height vg.Length
}

// NewPlot returns a Plot for format with the size given in inches.
func NewPlot(format string, widthIn, heightIn float64) (*Plot, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if _, ok := contentTypes[format]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if widthIn <= 0 || heightIn <= 0 {
		return nil, fmt.Errorf("plot size %vx%v in must be positive", widthIn, heightIn)
	}
	return &Plot{
		Format: format,
		Width:  vg.Length(widthIn) * vg.Inch,
		Height: vg.Length(heightIn) * vg.Inch,
	}, nil
}

var contentTypes = map[string]string{
	"png": "image/png",
	"svg": "image/svg+xml",
	"pdf": "application/pdf",
}

// ContentType returns the MIME type of the configured format.
func (r *Plot) ContentType() string {
	return contentTypes[r.Format]
}

// Render draws fig and writes the encoded image to w.
func (r *Plot) Render(w io.Writer, fig Figure) error {
	p := plot.New()
	p.X.Label.Text = "isi_N [ms]"
	p.Y.Label.Text = "probability"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Legend.Left = true
	p.Legend.Top = false
	p.Add(plotter.NewGrid())

	xmin, xmax := math.Pow(10, fig.Axes.XMinExp), math.Pow(10, fig.Axes.XMaxExp)
	ymin, ymax := math.Pow(10, fig.Axes.YMinExp), math.Pow(10, fig.Axes.YMaxExp)

	for i, c := range fig.Curves {
		pts := positivePoints(c)
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("curve %q: %w", c.Label, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(c.Label, line)
	}

	if fig.ThresholdMs != nil && *fig.ThresholdMs > 0 {
		marker, err := plotter.NewLine(plotter.XYs{{X: *fig.ThresholdMs, Y: ymin}, {X: *fig.ThresholdMs, Y: ymax}})
		if err != nil {
			return fmt.Errorf("threshold marker: %w", err)
		}
		marker.Color = color.RGBA{R: 220, A: 255}
		p.Add(marker)
		p.Legend.Add("threshold", marker)
	}

	// Add widens the axes to the data; pin them afterwards.
	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min, p.Y.Max = ymin, ymax

	wt, err := p.WriterTo(r.Width, r.Height, r.Format)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.Format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", r.Format, err)
	}
	return nil
}

// positivePoints drops samples a log axis cannot place.
func positivePoints(c Curve) plotter.XYs {
	n := len(c.X)
	if len(c.Y) < n {
		n = len(c.Y)
	}
	pts := make(plotter.XYs, 0, n)
	for i := 0; i < n; i++ {
		x, y := c.X[i], c.Y[i]
		if x > 0 && y > 0 && !math.IsInf(x, 0) && !math.IsInf(y, 0) {
			pts = append(pts, plotter.XY{X: x, Y: y})
		}
	}
	return pts
}
