package models

// DetectRequest asks for the bursts of one spike train.
type DetectRequest struct {
	Timestamps  []float64
	Unit        string
	Order       int
	ThresholdMs float64
	// ReturnFlags switches the result from intervals to the per-event flag sequence.
	ReturnFlags bool
}

// HistogramRequest asks for ISI_N distributions of one train over several orders.
type HistogramRequest struct {
	Timestamps []float64
	Unit       string
	Orders     []int
	// ThresholdMs is passed through for the renderer to draw as a reference line.
	ThresholdMs *float64
	Smooth      bool
}
