// Package smooth denoises histogram curves before they are drawn.
package smooth

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrLengthMismatch is returned when x and y differ in length.
	ErrLengthMismatch = errors.New("x and y lengths differ")
	// ErrUnsorted is returned when x is not ascending.
	ErrUnsorted = errors.New("x is not sorted")
)

// Smoother maps y sampled at ascending x onto a smoothed y of the same length.
type Smoother interface {
	Smooth(x, y []float64) ([]float64, error)
}

// Identity returns y unchanged.
type Identity struct{}

// Smooth copies y.
func (Identity) Smooth(x, y []float64) ([]float64, error) {
	if len(x) != len(y) {
		return nil, ErrLengthMismatch
	}
	return append([]float64(nil), y...), nil
}

// Lowess is locally weighted linear regression. Each point is refit from its
// int(Frac*len(x)) nearest neighbours weighted by the tricube kernel.
// Iterations adds bisquare robustness passes; zero means a single plain fit.
type Lowess struct {
	Frac       float64
	Iterations int
}

// DefaultLowess mirrors the usual histogram setting: 10% neighbourhood, no robustness passes.
func DefaultLowess() Lowess {
	return Lowess{Frac: 0.1}
}

// Smooth implements Smoother.
func (l Lowess) Smooth(x, y []float64) ([]float64, error) {
	if len(x) != len(y) {
		return nil, ErrLengthMismatch
	}
	if !sort.Float64sAreSorted(x) {
		return nil, ErrUnsorted
	}
	n := len(x)
	if n < 3 {
		return append([]float64(nil), y...), nil
	}

	k := int(l.Frac*float64(n) + 1e-10)
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}

	robust := make([]float64, n)
	for i := range robust {
		robust[i] = 1
	}

	fitted := make([]float64, n)
	for pass := 0; ; pass++ {
		fitPass(x, y, robust, k, fitted)
		if pass >= l.Iterations {
			break
		}
		ok, err := updateRobustness(y, fitted, robust)
		if err != nil {
			return nil, fmt.Errorf("robustness pass %d: %w", pass+1, err)
		}
		if !ok {
			break
		}
	}
	return fitted, nil
}

// fitPass refits every point from its k-nearest window, writing into fitted.
func fitPass(x, y, robust []float64, k int, fitted []float64) {
	n := len(x)
	wx := make([]float64, 0, k)
	wy := make([]float64, 0, k)
	ww := make([]float64, 0, k)

	left, right := 0, k-1
	for i := 0; i < n; i++ {
		// Slide the window while the point past the right edge is closer than the left edge.
		for right+1 < n && x[right+1]-x[i] < x[i]-x[left] {
			left++
			right++
		}
		radius := math.Max(x[i]-x[left], x[right]-x[i])

		wx, wy, ww = wx[:0], wy[:0], ww[:0]
		sumW := 0.0
		for j := left; j <= right; j++ {
			w := robust[j]
			if radius > 0 {
				w *= tricube(math.Abs(x[j]-x[i]) / radius)
			}
			if w <= 0 {
				continue
			}
			wx = append(wx, x[j])
			wy = append(wy, y[j])
			ww = append(ww, w)
			sumW += w
		}

		switch {
		case sumW == 0:
			fitted[i] = y[i]
		case constant(wx):
			fitted[i] = stat.Mean(wy, ww)
		default:
			alpha, beta := stat.LinearRegression(wx, wy, ww, false)
			fitted[i] = alpha + beta*x[i]
		}
	}
}

// updateRobustness recomputes bisquare weights from the residuals. It reports false
// once the residuals are all zero and further passes cannot change the fit.
func updateRobustness(y, fitted, robust []float64) (bool, error) {
	residuals := make([]float64, len(y))
	for i := range y {
		residuals[i] = math.Abs(y[i] - fitted[i])
	}
	median, err := stats.Median(residuals)
	if err != nil {
		return false, err
	}
	if median == 0 {
		return false, nil
	}
	scale := 6 * median
	for i, r := range residuals {
		u := r / scale
		if u >= 1 {
			robust[i] = 0
			continue
		}
		robust[i] = (1 - u*u) * (1 - u*u)
	}
	return true, nil
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func tricube(d float64) float64 {
	if d >= 1 {
		return 0
	}
	c := 1 - d*d*d
	return c * c * c
}
