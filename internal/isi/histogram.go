package isi

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/miradorstack/burst-detector/internal/utils"
)

// Default log-spaced binning, in milliseconds: 10^-1 .. 10^4 with 100 edges.
const (
	DefaultMinExponent = -1.0
	DefaultMaxExponent = 4.0
	DefaultEdgeCount   = 100
)

// ErrInvalidBins is returned for bin edges that cannot describe a histogram.
var ErrInvalidBins = errors.New("invalid bin edges")

// Bin is one histogram bar keyed by its right edge.
type Bin struct {
	Edge        float64
	Probability float64
}

// LogEdges returns count edges spaced evenly in log10 between 10^minExp and 10^maxExp.
func LogEdges(minExp, maxExp float64, count int) ([]float64, error) {
	if count < 2 {
		return nil, utils.Errorf("isi.LogEdges", ErrInvalidBins, "need at least 2 edges, got %d", count)
	}
	if math.IsNaN(minExp) || math.IsNaN(maxExp) || math.IsInf(minExp, 0) || math.IsInf(maxExp, 0) || minExp >= maxExp {
		return nil, utils.Errorf("isi.LogEdges", ErrInvalidBins, "exponent range [%v, %v] is empty", minExp, maxExp)
	}
	edges := floats.LogSpan(make([]float64, count), math.Pow(10, minExp), math.Pow(10, maxExp))
	// LogSpan goes through exp/log; pin the ends to the exact powers.
	edges[0] = math.Pow(10, minExp)
	edges[count-1] = math.Pow(10, maxExp)
	return edges, nil
}

// DefaultEdges returns LogEdges with the default range.
func DefaultEdges() []float64 {
	edges, _ := LogEdges(DefaultMinExponent, DefaultMaxExponent, DefaultEdgeCount)
	return edges
}

// Histogram bins the ISI_N of train into edges and normalizes the counts to a probability mass.
// Bins are half-open [e_i, e_i+1) except the last, which also holds values equal to the top edge.
// Values outside the edges are ignored; if none fall inside, every probability is zero.
func Histogram(train []float64, n int, edges []float64) ([]Bin, error) {
	if err := checkEdges(edges); err != nil {
		return nil, err
	}
	series, err := Series(train, n)
	if err != nil {
		return nil, err
	}
	counts := Counts(series, edges)

	if total := floats.Sum(counts); total > 0 {
		floats.Scale(1/total, counts)
	}

	bins := make([]Bin, len(counts))
	for i, c := range counts {
		bins[i] = Bin{Edge: edges[i+1], Probability: c}
	}
	return bins, nil
}

// Counts returns raw per-bin counts of values within edges. edges must be valid.
func Counts(values, edges []float64) []float64 {
	lo, hi := edges[0], edges[len(edges)-1]

	inside := make([]float64, 0, len(values))
	atTop := 0
	for _, v := range values {
		switch {
		case v == hi:
			atTop++
		case v >= lo && v < hi:
			inside = append(inside, v)
		}
	}
	sort.Float64s(inside)

	counts := stat.Histogram(nil, edges, inside, nil)
	counts[len(counts)-1] += float64(atTop)
	return counts
}

func checkEdges(edges []float64) error {
	if len(edges) < 2 {
		return utils.Errorf("isi.Histogram", ErrInvalidBins, "need at least 2 edges, got %d", len(edges))
	}
	for i, e := range edges {
		if math.IsNaN(e) || math.IsInf(e, 0) || e <= 0 {
			return utils.Errorf("isi.Histogram", ErrInvalidBins, "edge %d is %v", i, e)
		}
		if i > 0 && e <= edges[i-1] {
			return utils.Errorf("isi.Histogram", ErrInvalidBins, "edges not strictly increasing at %d", i)
		}
	}
	return nil
}
