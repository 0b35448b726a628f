// Package isi computes the Nth-order inter-spike interval (ISI_N) of a sorted train:
// the time spanned by N consecutive events.
package isi

import (
	"errors"

	"github.com/miradorstack/burst-detector/internal/utils"
)

// MinOrder is the smallest meaningful window size.
const MinOrder = 2

// ErrInvalidOrder is returned when N is below MinOrder or exceeds the train length.
var ErrInvalidOrder = errors.New("invalid order")

// CheckOrder validates n against a train of the given length. An empty train accepts any n >= MinOrder.
func CheckOrder(n, length int) error {
	if n < MinOrder {
		return utils.Errorf("isi.CheckOrder", ErrInvalidOrder, "order %d is below %d", n, MinOrder)
	}
	if length > 0 && n > length {
		return utils.Errorf("isi.CheckOrder", ErrInvalidOrder, "order %d exceeds train length %d", n, length)
	}
	return nil
}

// Series returns ISI_N for an ascending train: out[i] = train[i+n-1] - train[i].
// The result has len(train)-n+1 elements, or none for an empty train.
func Series(train []float64, n int) ([]float64, error) {
	if err := CheckOrder(n, len(train)); err != nil {
		return nil, err
	}
	if len(train) == 0 {
		return []float64{}, nil
	}

	out := make([]float64, len(train)-n+1)
	for i := range out {
		out[i] = train[i+n-1] - train[i]
	}
	return out, nil
}
