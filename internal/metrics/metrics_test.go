package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register should tolerate duplicates: %v", err)
	}
}

func TestObserveRequestUnknownOutcome(t *testing.T) {
	before := testutil.ToFloat64(requestsTotal.WithLabelValues("detect", OutcomeError))
	ObserveRequest("detect", -time.Second, "weird")
	after := testutil.ToFloat64(requestsTotal.WithLabelValues("detect", OutcomeError))
	if after-before != 1 {
		t.Fatalf("expected unknown outcome to count as error, delta %v", after-before)
	}
}

func TestObserveDetection(t *testing.T) {
	events := testutil.ToFloat64(eventsTotal)
	bursts := testutil.ToFloat64(burstsTotal)
	ObserveDetection(10, 2)
	ObserveDetection(0, 0)
	if got := testutil.ToFloat64(eventsTotal) - events; got != 10 {
		t.Fatalf("expected 10 events, got %v", got)
	}
	if got := testutil.ToFloat64(burstsTotal) - bursts; got != 2 {
		t.Fatalf("expected 2 bursts, got %v", got)
	}
}
