package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/miradorstack/burst-detector/internal/burst"
	"github.com/miradorstack/burst-detector/internal/isi"
	"github.com/miradorstack/burst-detector/internal/models"
	"github.com/miradorstack/burst-detector/internal/smooth"
	"github.com/miradorstack/burst-detector/internal/spiketrain"
	"github.com/miradorstack/burst-detector/internal/utils"
)

// ErrTooManyEvents is returned when a train exceeds the configured size bound.
var ErrTooManyEvents = errors.New("too many events")

// IsInvalidInput reports whether err stems from caller input rather than an internal fault.
func IsInvalidInput(err error) bool {
	for _, target := range []error{
		spiketrain.ErrInvalidUnit,
		spiketrain.ErrInvalidTimestamp,
		isi.ErrInvalidOrder,
		isi.ErrInvalidBins,
		burst.ErrInvalidThreshold,
		ErrTooManyEvents,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Analyzer runs burst detection and ISI_N histograms over single trains. It holds no
// per-call state and is safe for concurrent use.
type Analyzer struct {
	logger    *slog.Logger
	smoother  smooth.Smoother
	edges     []float64
	maxEvents int
}

// NewAnalyzer constructs an Analyzer. Nil smoother and empty edges fall back to LOWESS
// and the default log bins; maxEvents <= 0 disables the size bound.
func NewAnalyzer(logger *slog.Logger, smoother smooth.Smoother, edges []float64, maxEvents int) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if smoother == nil {
		smoother = smooth.DefaultLowess()
	}
	if len(edges) == 0 {
		edges = isi.DefaultEdges()
	}
	return &Analyzer{
		logger:    logger,
		smoother:  smoother,
		edges:     append([]float64(nil), edges...),
		maxEvents: maxEvents,
	}
}

// Detect normalizes the request's train and returns its bursts, or its flags when requested.
func (a *Analyzer) Detect(ctx context.Context, req models.DetectRequest) (models.DetectResult, error) {
	if err := ctx.Err(); err != nil {
		return models.DetectResult{}, err
	}
	train, err := a.prepare(req.Timestamps, req.Unit)
	if err != nil {
		return models.DetectResult{}, err
	}

	result := models.DetectResult{
		Unit:        string(train.Unit()),
		Order:       req.Order,
		ThresholdMs: req.ThresholdMs,
		Events:      train.Len(),
	}

	if req.ReturnFlags {
		flags, err := burst.Flags(train, req.Order, req.ThresholdMs)
		if err != nil {
			return models.DetectResult{}, err
		}
		result.Flags = flags
		return result, nil
	}

	intervals, err := burst.Detect(train, req.Order, req.ThresholdMs)
	if err != nil {
		return models.DetectResult{}, err
	}
	result.Intervals = make([]models.BurstInterval, len(intervals))
	for i, iv := range intervals {
		result.Intervals[i] = models.BurstInterval{
			Start:      iv.Start,
			End:        iv.End,
			FirstIndex: iv.First,
			LastIndex:  iv.Last,
			Events:     iv.Events(),
		}
	}

	a.logger.Debug("bursts detected",
		slog.Int("events", train.Len()),
		slog.Int("order", req.Order),
		slog.Float64("threshold_ms", req.ThresholdMs),
		slog.Int("bursts", len(intervals)),
	)
	return result, nil
}

// Histograms returns one ISI_N distribution per requested order. Every order is
// validated before any histogram is built.
func (a *Analyzer) Histograms(ctx context.Context, req models.HistogramRequest) (models.HistogramResult, error) {
	if len(req.Orders) == 0 {
		return models.HistogramResult{}, utils.NewAppError("engine.Histograms", "at least one order is required", isi.ErrInvalidOrder)
	}
	if req.ThresholdMs != nil {
		if err := burst.CheckThreshold(*req.ThresholdMs); err != nil {
			return models.HistogramResult{}, err
		}
	}
	train, err := a.prepare(req.Timestamps, req.Unit)
	if err != nil {
		return models.HistogramResult{}, err
	}
	for _, n := range req.Orders {
		if err := isi.CheckOrder(n, train.Len()); err != nil {
			return models.HistogramResult{}, err
		}
	}

	millis := train.Millis()
	result := models.HistogramResult{
		Curves:      make([]models.HistogramCurve, 0, len(req.Orders)),
		ThresholdMs: req.ThresholdMs,
		Smoothed:    req.Smooth,
	}
	for _, n := range req.Orders {
		if err := ctx.Err(); err != nil {
			return models.HistogramResult{}, err
		}
		curve, err := a.curve(millis, n, req.Smooth)
		if err != nil {
			return models.HistogramResult{}, err
		}
		result.Curves = append(result.Curves, curve)
	}
	return result, nil
}

func (a *Analyzer) curve(millis []float64, n int, smoothed bool) (models.HistogramCurve, error) {
	bins, err := isi.Histogram(millis, n, a.edges)
	if err != nil {
		return models.HistogramCurve{}, err
	}
	series, err := isi.Series(millis, n)
	if err != nil {
		return models.HistogramCurve{}, err
	}
	summary, err := isi.Summarize(series)
	if err != nil {
		return models.HistogramCurve{}, utils.NewAppError("engine.curve", "summarize isi_n", err)
	}

	x := make([]float64, len(bins))
	y := make([]float64, len(bins))
	for i, b := range bins {
		x[i], y[i] = b.Edge, b.Probability
	}
	fitted := y
	if smoothed {
		if fitted, err = a.smoother.Smooth(x, y); err != nil {
			return models.HistogramCurve{}, utils.NewAppError("engine.curve", "smooth histogram", err)
		}
	}

	points := make([]models.HistogramPoint, len(bins))
	for i := range bins {
		points[i] = models.HistogramPoint{Edge: x[i], Probability: y[i], Smoothed: fitted[i]}
	}
	return models.HistogramCurve{
		Order:  n,
		Points: points,
		Summary: models.IsiSummary{
			Count:  summary.Count,
			Min:    summary.Min,
			Max:    summary.Max,
			Mean:   summary.Mean,
			Median: summary.Median,
			P05:    summary.P05,
			P95:    summary.P95,
		},
	}, nil
}

func (a *Analyzer) prepare(times []float64, unit string) (spiketrain.Train, error) {
	u, err := spiketrain.ParseUnit(unit)
	if err != nil {
		return spiketrain.Train{}, err
	}
	if a.maxEvents > 0 && len(times) > a.maxEvents {
		return spiketrain.Train{}, utils.Errorf("engine.prepare", ErrTooManyEvents, "%d events exceed limit %d", len(times), a.maxEvents)
	}
	return spiketrain.Normalize(times, u)
}
