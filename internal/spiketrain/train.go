// Package spiketrain turns raw event times into a sorted train expressed in milliseconds,
// keeping the caller's original values so results can be reported back in their unit.
package spiketrain

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/miradorstack/burst-detector/internal/utils"
)

var (
	// ErrInvalidUnit is returned for a unit tag other than seconds or milliseconds.
	ErrInvalidUnit = errors.New("invalid unit")
	// ErrInvalidTimestamp is returned for NaN or infinite event times.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// Unit is the time scale of a raw event train.
type Unit string

const (
	Seconds      Unit = "s"
	Milliseconds Unit = "ms"
)

// ParseUnit accepts the short and long spellings of seconds and milliseconds.
func ParseUnit(value string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "s", "sec", "secs", "second", "seconds":
		return Seconds, nil
	case "ms", "msec", "msecs", "millisecond", "milliseconds":
		return Milliseconds, nil
	default:
		return "", utils.Errorf("spiketrain.ParseUnit", ErrInvalidUnit, "%q is not one of s, ms", value)
	}
}

// Valid reports whether u is a recognised unit.
func (u Unit) Valid() bool {
	return u == Seconds || u == Milliseconds
}

// PerMillisecond is the number of milliseconds in one u.
func (u Unit) PerMillisecond() float64 {
	if u == Seconds {
		return 1000
	}
	return 1
}

// Train is an immutable, ascending event train.
type Train struct {
	unit     Unit
	original []float64
	millis   []float64
}

// Normalize sorts a copy of times and converts it to milliseconds.
func Normalize(times []float64, unit Unit) (Train, error) {
	if !unit.Valid() {
		return Train{}, utils.Errorf("spiketrain.Normalize", ErrInvalidUnit, "%q is not one of s, ms", string(unit))
	}
	for i, v := range times {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Train{}, utils.Errorf("spiketrain.Normalize", ErrInvalidTimestamp, "index %d is %v", i, v)
		}
	}

	original := append([]float64(nil), times...)
	sort.Float64s(original)

	// Scaling by a positive factor keeps the sort order.
	factor := unit.PerMillisecond()
	millis := make([]float64, len(original))
	for i, v := range original {
		millis[i] = v * factor
		if math.IsInf(millis[i], 0) {
			return Train{}, utils.Errorf("spiketrain.Normalize", ErrInvalidTimestamp, "sorted index %d (%v %s) overflows in milliseconds", i, v, string(unit))
		}
	}

	return Train{unit: unit, original: original, millis: millis}, nil
}

// Len returns the number of events.
func (t Train) Len() int { return len(t.millis) }

// Unit returns the caller's unit.
func (t Train) Unit() Unit { return t.unit }

// Millis returns a copy of the event times in milliseconds.
func (t Train) Millis() []float64 {
	return append([]float64(nil), t.millis...)
}

// MillisAt returns the ith event time in milliseconds.
func (t Train) MillisAt(i int) float64 { return t.millis[i] }

// Original returns the ith event time in the caller's unit.
func (t Train) Original(i int) float64 { return t.original[i] }

// Originals returns a copy of the sorted event times in the caller's unit.
func (t Train) Originals() []float64 {
	return append([]float64(nil), t.original...)
}

// ToUnit converts a millisecond value into the train's unit.
func (t Train) ToUnit(ms float64) float64 {
	if t.unit == Seconds {
		return ms / 1000
	}
	return ms
}
