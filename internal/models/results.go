package models

import "encoding/json"

// BurstInterval is one detected burst in the caller's time unit.
type BurstInterval struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	FirstIndex int     `json:"first_index"`
	LastIndex  int     `json:"last_index"`
	Events     int     `json:"events"`
}

// DetectResult carries either intervals or flags, depending on the request.
type DetectResult struct {
	Unit        string          `json:"unit"`
	Order       int             `json:"order"`
	ThresholdMs float64         `json:"threshold_ms"`
	Events      int             `json:"events"`
	Intervals   []BurstInterval `json:"intervals"`
	Flags       []bool          `json:"flags"`
}

// MarshalJSON emits flags when the result is in flag mode and intervals otherwise,
// always as a list.
func (r DetectResult) MarshalJSON() ([]byte, error) {
	type base struct {
		Unit        string  `json:"unit"`
		Order       int     `json:"order"`
		ThresholdMs float64 `json:"threshold_ms"`
		Events      int     `json:"events"`
	}
	b := base{Unit: r.Unit, Order: r.Order, ThresholdMs: r.ThresholdMs, Events: r.Events}
	if r.Flags != nil {
		return json.Marshal(struct {
			base
			Flags []bool `json:"flags"`
		}{b, r.Flags})
	}
	intervals := r.Intervals
	if intervals == nil {
		intervals = []BurstInterval{}
	}
	return json.Marshal(struct {
		base
		Intervals []BurstInterval `json:"intervals"`
	}{b, intervals})
}

// HistogramPoint is one bin keyed by its right edge, in milliseconds.
type HistogramPoint struct {
	Edge        float64 `json:"edge"`
	Probability float64 `json:"probability"`
	Smoothed    float64 `json:"smoothed"`
}

// IsiSummary describes the ISI_N spread for one order, in milliseconds.
type IsiSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P05    float64 `json:"p05"`
	P95    float64 `json:"p95"`
}

// HistogramCurve is the ISI_N distribution of a single order.
type HistogramCurve struct {
	Order   int              `json:"order"`
	Points  []HistogramPoint `json:"points"`
	Summary IsiSummary       `json:"summary"`
}

// HistogramResult groups the curves of one request.
type HistogramResult struct {
	Curves      []HistogramCurve `json:"curves"`
	ThresholdMs *float64         `json:"threshold_ms,omitempty"`
	Smoothed    bool             `json:"smoothed"`
}
