package api

import (
	"testing"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/burst-detector/internal/models"
)

var testDefaults = Defaults{Unit: "s", Order: 10, ThresholdMs: 50, Smooth: true}

func mustStruct(t *testing.T, doc map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(doc)
	if err != nil {
		t.Fatalf("build struct: %v", err)
	}
	return s
}

func TestFromStructDetectRequest(t *testing.T) {
	req := mustStruct(t, map[string]interface{}{
		"timestamps":   []interface{}{0.0, 1.0, 2.0},
		"unit":         "ms",
		"order":        2,
		"threshold_ms": 5.5,
		"return_flags": true,
	})

	domainReq, err := FromStructDetectRequest(req, testDefaults)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if domainReq.Unit != "ms" || domainReq.Order != 2 || domainReq.ThresholdMs != 5.5 || !domainReq.ReturnFlags {
		t.Fatalf("unexpected request: %+v", domainReq)
	}
	if len(domainReq.Timestamps) != 3 || domainReq.Timestamps[2] != 2 {
		t.Fatalf("unexpected timestamps: %v", domainReq.Timestamps)
	}
}

func TestFromStructDetectRequestDefaults(t *testing.T) {
	domainReq, err := FromStructDetectRequest(mustStruct(t, map[string]interface{}{
		"timestamps": []interface{}{0.5},
	}), testDefaults)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if domainReq.Unit != "s" || domainReq.Order != 10 || domainReq.ThresholdMs != 50 || domainReq.ReturnFlags {
		t.Fatalf("expected defaults, got %+v", domainReq)
	}
}

func TestFromStructDetectRequestExplicitValuesKept(t *testing.T) {
	// An explicit order of 1 must reach validation rather than being replaced.
	domainReq, err := FromStructDetectRequest(mustStruct(t, map[string]interface{}{
		"order":        1,
		"threshold_ms": -3.0,
	}), testDefaults)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if domainReq.Order != 1 || domainReq.ThresholdMs != -3 {
		t.Fatalf("expected explicit values, got %+v", domainReq)
	}
}

func TestFromStructDetectRequestTypeErrors(t *testing.T) {
	cases := []map[string]interface{}{
		{"timestamps": "0,1,2"},
		{"timestamps": []interface{}{0.0, "1"}},
		{"order": 2.5},
		{"order": "2"},
		{"unit": 1.0},
		{"return_flags": "yes"},
	}
	for _, doc := range cases {
		if _, err := FromStructDetectRequest(mustStruct(t, doc), testDefaults); err == nil {
			t.Fatalf("expected error for %v", doc)
		}
	}
	if _, err := FromStructDetectRequest(nil, testDefaults); err == nil {
		t.Fatalf("expected error for nil request")
	}
}

func TestFromStructHistogramRequest(t *testing.T) {
	domainReq, err := FromStructHistogramRequest(mustStruct(t, map[string]interface{}{
		"timestamps":   []interface{}{0.0, 0.001},
		"orders":       []interface{}{2.0, 3.0},
		"threshold_ms": 20.0,
		"smooth":       false,
	}), testDefaults)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(domainReq.Orders) != 2 || domainReq.Orders[1] != 3 {
		t.Fatalf("unexpected orders: %v", domainReq.Orders)
	}
	if domainReq.ThresholdMs == nil || *domainReq.ThresholdMs != 20 {
		t.Fatalf("expected threshold marker")
	}
	if domainReq.Smooth {
		t.Fatalf("expected smoothing disabled")
	}

	domainReq, err = FromStructHistogramRequest(mustStruct(t, map[string]interface{}{}), testDefaults)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(domainReq.Orders) != 1 || domainReq.Orders[0] != 10 || domainReq.ThresholdMs != nil || !domainReq.Smooth {
		t.Fatalf("expected defaults, got %+v", domainReq)
	}
}

func TestToStructDetectResult(t *testing.T) {
	doc, err := ToStructDetectResult(models.DetectResult{
		Unit:        "ms",
		Order:       2,
		ThresholdMs: 5,
		Events:      6,
		Intervals:   []models.BurstInterval{{Start: 0, End: 3, FirstIndex: 0, LastIndex: 3, Events: 4}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	intervals := doc.GetFields()["intervals"].GetListValue().GetValues()
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(intervals))
	}
	end := intervals[0].GetStructValue().GetFields()["end"].GetNumberValue()
	if end != 3 {
		t.Fatalf("unexpected end: %v", end)
	}
	if _, ok := doc.GetFields()["flags"]; ok {
		t.Fatalf("flags must be absent in interval mode")
	}
}

func TestToStructDetectResultEmptyIntervals(t *testing.T) {
	doc, err := ToStructDetectResult(models.DetectResult{Unit: "s", Order: 2, Intervals: []models.BurstInterval{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := doc.GetFields()["intervals"]; !ok || len(v.GetListValue().GetValues()) != 0 {
		t.Fatalf("expected an empty interval list")
	}
}

func TestToStructHistogramResult(t *testing.T) {
	threshold := 30.0
	doc, err := ToStructHistogramResult(models.HistogramResult{
		Curves: []models.HistogramCurve{{
			Order:   3,
			Points:  []models.HistogramPoint{{Edge: 1, Probability: 1, Smoothed: 0.9}},
			Summary: models.IsiSummary{Count: 1, Median: 0.7},
		}},
		ThresholdMs: &threshold,
		Smoothed:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.GetFields()["threshold_ms"].GetNumberValue() != 30 {
		t.Fatalf("expected threshold pass-through")
	}
	curve := doc.GetFields()["curves"].GetListValue().GetValues()[0].GetStructValue()
	if curve.GetFields()["order"].GetNumberValue() != 3 {
		t.Fatalf("unexpected order")
	}
	median := curve.GetFields()["summary"].GetStructValue().GetFields()["median"].GetNumberValue()
	if median != 0.7 {
		t.Fatalf("unexpected median %v", median)
	}
}
