package burst

import (
	"errors"
	"math"

	"github.com/miradorstack/burst-detector/internal/isi"
	"github.com/miradorstack/burst-detector/internal/spiketrain"
	"github.com/miradorstack/burst-detector/internal/utils"
)

// ErrInvalidThreshold is returned for a negative or NaN threshold.
var ErrInvalidThreshold = errors.New("invalid threshold")

// Interval is one burst: the first and last event times in the caller's unit,
// plus the inclusive event indices into the sorted train.
type Interval struct {
	Start float64
	End   float64
	First int
	Last  int
}

// Events is the number of events in the burst.
func (iv Interval) Events() int { return iv.Last - iv.First + 1 }

// CheckThreshold rejects negative and NaN thresholds.
func CheckThreshold(thresholdMs float64) error {
	if math.IsNaN(thresholdMs) || thresholdMs < 0 {
		return utils.Errorf("burst.CheckThreshold", ErrInvalidThreshold, "threshold %v ms must be >= 0", thresholdMs)
	}
	return nil
}

// Validate checks order and threshold against train before any scanning.
func Validate(train spiketrain.Train, n int, thresholdMs float64) error {
	if err := CheckThreshold(thresholdMs); err != nil {
		return err
	}
	return isi.CheckOrder(n, train.Len())
}

// Flags marks every event of train that lies in an ISI_N window no longer than thresholdMs.
// The result is aligned with the sorted train.
func Flags(train spiketrain.Train, n int, thresholdMs float64) ([]bool, error) {
	if err := Validate(train, n, thresholdMs); err != nil {
		return nil, err
	}
	return flags(train, n, thresholdMs), nil
}

// Detect returns the bursts of train in ascending, non-overlapping order.
func Detect(train spiketrain.Train, n int, thresholdMs float64) ([]Interval, error) {
	if err := Validate(train, n, thresholdMs); err != nil {
		return nil, err
	}

	runs := Runs(flags(train, n, thresholdMs))
	intervals := make([]Interval, len(runs))
	for i, r := range runs {
		intervals[i] = Interval{
			Start: train.Original(r.First),
			End:   train.Original(r.Last),
			First: r.First,
			Last:  r.Last,
		}
	}
	return intervals, nil
}

// flags assumes validated input. A window starting at i covers events i..i+n-1;
// since window ends grow with i, tracking the furthest covered index is enough.
func flags(train spiketrain.Train, n int, thresholdMs float64) []bool {
	out := make([]bool, train.Len())
	windows := train.Len() - n + 1
	coveredTo := -1
	for i := range out {
		if i < windows && train.MillisAt(i+n-1)-train.MillisAt(i) <= thresholdMs {
			coveredTo = i + n - 1
		}
		out[i] = i <= coveredTo
	}
	return out
}
