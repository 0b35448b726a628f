package api

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/burst-detector/internal/models"
)

// Defaults fill in request fields the caller left out. Fields that are present are
// used as sent, so an explicit invalid value is still rejected downstream.
type Defaults struct {
	Unit        string
	Order       int
	ThresholdMs float64
	Smooth      bool
}

// FromStructDetectRequest maps a Detect request document into a domain DetectRequest.
//
//	{"timestamps": [..], "unit": "s", "order": 10, "threshold_ms": 50, "return_flags": false}
func FromStructDetectRequest(req *structpb.Struct, d Defaults) (models.DetectRequest, error) {
	if req == nil {
		return models.DetectRequest{}, fmt.Errorf("request is nil")
	}
	fields := req.GetFields()

	out := models.DetectRequest{Unit: d.Unit, Order: d.Order, ThresholdMs: d.ThresholdMs}
	var err error
	if out.Timestamps, err = numberList(fields, "timestamps"); err != nil {
		return models.DetectRequest{}, err
	}
	if err := stringField(fields, "unit", &out.Unit); err != nil {
		return models.DetectRequest{}, err
	}
	if err := intField(fields, "order", &out.Order); err != nil {
		return models.DetectRequest{}, err
	}
	if err := numberField(fields, "threshold_ms", &out.ThresholdMs); err != nil {
		return models.DetectRequest{}, err
	}
	if err := boolField(fields, "return_flags", &out.ReturnFlags); err != nil {
		return models.DetectRequest{}, err
	}
	return out, nil
}

// FromStructHistogramRequest maps a Histogram request document into a domain HistogramRequest.
//
//	{"timestamps": [..], "unit": "s", "orders": [2, 3, 4], "threshold_ms": 50, "smooth": true}
func FromStructHistogramRequest(req *structpb.Struct, d Defaults) (models.HistogramRequest, error) {
	if req == nil {
		return models.HistogramRequest{}, fmt.Errorf("request is nil")
	}
	fields := req.GetFields()

	out := models.HistogramRequest{Unit: d.Unit, Smooth: d.Smooth}
	var err error
	if out.Timestamps, err = numberList(fields, "timestamps"); err != nil {
		return models.HistogramRequest{}, err
	}
	if err := stringField(fields, "unit", &out.Unit); err != nil {
		return models.HistogramRequest{}, err
	}
	if _, ok := fields["orders"]; ok {
		if out.Orders, err = intList(fields, "orders"); err != nil {
			return models.HistogramRequest{}, err
		}
	} else {
		out.Orders = []int{d.Order}
	}
	if _, ok := fields["threshold_ms"]; ok {
		var threshold float64
		if err := numberField(fields, "threshold_ms", &threshold); err != nil {
			return models.HistogramRequest{}, err
		}
		out.ThresholdMs = &threshold
	}
	if err := boolField(fields, "smooth", &out.Smooth); err != nil {
		return models.HistogramRequest{}, err
	}
	return out, nil
}

// ToStructDetectResult converts a domain result into the response document.
func ToStructDetectResult(res models.DetectResult) (*structpb.Struct, error) {
	doc := map[string]interface{}{
		"unit":         res.Unit,
		"order":        res.Order,
		"threshold_ms": res.ThresholdMs,
		"events":       res.Events,
	}
	if res.Flags != nil {
		flags := make([]interface{}, len(res.Flags))
		for i, f := range res.Flags {
			flags[i] = f
		}
		doc["flags"] = flags
	} else {
		intervals := make([]interface{}, len(res.Intervals))
		for i, iv := range res.Intervals {
			intervals[i] = map[string]interface{}{
				"start":       iv.Start,
				"end":         iv.End,
				"first_index": iv.FirstIndex,
				"last_index":  iv.LastIndex,
				"events":      iv.Events,
			}
		}
		doc["intervals"] = intervals
	}
	return structpb.NewStruct(doc)
}

// ToStructHistogramResult converts histogram curves into the response document.
func ToStructHistogramResult(res models.HistogramResult) (*structpb.Struct, error) {
	curves := make([]interface{}, len(res.Curves))
	for i, c := range res.Curves {
		points := make([]interface{}, len(c.Points))
		for j, p := range c.Points {
			points[j] = map[string]interface{}{
				"edge":        p.Edge,
				"probability": p.Probability,
				"smoothed":    p.Smoothed,
			}
		}
		curves[i] = map[string]interface{}{
			"order":  c.Order,
			"points": points,
			"summary": map[string]interface{}{
				"count":  c.Summary.Count,
				"min":    c.Summary.Min,
				"max":    c.Summary.Max,
				"mean":   c.Summary.Mean,
				"median": c.Summary.Median,
				"p05":    c.Summary.P05,
				"p95":    c.Summary.P95,
			},
		}
	}
	doc := map[string]interface{}{
		"curves":   curves,
		"smoothed": res.Smoothed,
	}
	if res.ThresholdMs != nil {
		doc["threshold_ms"] = *res.ThresholdMs
	}
	return structpb.NewStruct(doc)
}

func numberList(fields map[string]*structpb.Value, key string) ([]float64, error) {
	v, ok := fields[key]
	if !ok {
		return nil, nil
	}
	list, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, fmt.Errorf("%s must be a list of numbers", key)
	}
	values := list.ListValue.GetValues()
	out := make([]float64, len(values))
	for i, item := range values {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a number", key, i)
		}
		out[i] = n.NumberValue
	}
	return out, nil
}

func intList(fields map[string]*structpb.Value, key string) ([]int, error) {
	numbers, err := numberList(fields, key)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(numbers))
	for i, n := range numbers {
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
			return nil, fmt.Errorf("%s[%d] must be an integer", key, i)
		}
		out[i] = int(n)
	}
	return out, nil
}

func stringField(fields map[string]*structpb.Value, key string, dst *string) error {
	v, ok := fields[key]
	if !ok {
		return nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return fmt.Errorf("%s must be a string", key)
	}
	*dst = s.StringValue
	return nil
}

func numberField(fields map[string]*structpb.Value, key string, dst *float64) error {
	v, ok := fields[key]
	if !ok {
		return nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return fmt.Errorf("%s must be a number", key)
	}
	*dst = n.NumberValue
	return nil
}

func intField(fields map[string]*structpb.Value, key string, dst *int) error {
	var n float64
	if _, ok := fields[key]; !ok {
		return nil
	}
	if err := numberField(fields, key, &n); err != nil {
		return err
	}
	if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return fmt.Errorf("%s must be an integer", key)
	}
	*dst = int(n)
	return nil
}

func boolField(fields map[string]*structpb.Value, key string, dst *bool) error {
	v, ok := fields[key]
	if !ok {
		return nil
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return fmt.Errorf("%s must be a boolean", key)
	}
	*dst = b.BoolValue
	return nil
}
