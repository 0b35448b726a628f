package engine

import (
	"fmt"

	"github.com/miradorstack/burst-detector/internal/models"
	"github.com/miradorstack/burst-detector/internal/render"
)

// Figure turns histogram curves into a renderable figure, drawing the smoothed values.
func Figure(res models.HistogramResult, axes render.Axes) render.Figure {
	fig := render.Figure{
		Curves:      make([]render.Curve, 0, len(res.Curves)),
		ThresholdMs: res.ThresholdMs,
		Axes:        axes,
	}
	for _, c := range res.Curves {
		curve := render.Curve{
			Label: fmt.Sprintf("N=%d", c.Order),
			X:     make([]float64, len(c.Points)),
			Y:     make([]float64, len(c.Points)),
		}
		for i, p := range c.Points {
			curve.X[i], curve.Y[i] = p.Edge, p.Smoothed
		}
		fig.Curves = append(fig.Curves, curve)
	}
	return fig
}
