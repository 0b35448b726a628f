package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels requests that produced a result.
	OutcomeSuccess = "success"
	// OutcomeInvalid labels requests rejected for bad input.
	OutcomeInvalid = "invalid"
	// OutcomeError labels requests that failed for any other reason.
	OutcomeError = "error"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "burst_detector",
			Name:      "requests_total",
			Help:      "Total number of analysis requests, partitioned by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	requestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "burst_detector",
			Name:      "request_seconds",
			Help:      "Analysis latency in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method"},
	)

	burstsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "burst_detector",
			Name:      "bursts_total",
			Help:      "Total number of bursts detected.",
		},
	)

	eventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "burst_detector",
			Name:      "events_total",
			Help:      "Total number of spike events analysed.",
		},
	)
)

// Register attaches burst-detector collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		requestsTotal,
		requestDurationSeconds,
		burstsTotal,
		eventsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRequest records a request duration and outcome label for method.
func ObserveRequest(method string, duration time.Duration, outcome string) {
	switch outcome {
	case OutcomeSuccess, OutcomeInvalid, OutcomeError:
	default:
		outcome = OutcomeError
	}
	requestsTotal.WithLabelValues(method, outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	requestDurationSeconds.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveDetection counts analysed events and detected bursts.
func ObserveDetection(events, bursts int) {
	if events > 0 {
		eventsTotal.Add(float64(events))
	}
	if bursts > 0 {
		burstsTotal.Add(float64(bursts))
	}
}
