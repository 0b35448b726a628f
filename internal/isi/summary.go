package isi

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Summary describes the spread of an ISI_N series and is used to pick a threshold.
type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	P05    float64
	P95    float64
}

// Summarize returns descriptive statistics of series. An empty series yields a zero Summary.
func Summarize(series []float64) (Summary, error) {
	if len(series) == 0 {
		return Summary{}, nil
	}
	data := stats.Float64Data(series)

	var (
		s   = Summary{Count: len(series)}
		err error
	)
	if s.Min, err = stats.Min(data); err != nil {
		return Summary{}, fmt.Errorf("min: %w", err)
	}
	if s.Max, err = stats.Max(data); err != nil {
		return Summary{}, fmt.Errorf("max: %w", err)
	}
	if s.Mean, err = stats.Mean(data); err != nil {
		return Summary{}, fmt.Errorf("mean: %w", err)
	}
	if s.Median, err = stats.Median(data); err != nil {
		return Summary{}, fmt.Errorf("median: %w", err)
	}
	if s.P05, err = stats.PercentileNearestRank(data, 5); err != nil {
		return Summary{}, fmt.Errorf("p05: %w", err)
	}
	if s.P95, err = stats.PercentileNearestRank(data, 95); err != nil {
		return Summary{}, fmt.Errorf("p95: %w", err)
	}
	return s, nil
}
