package isi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeries(t *testing.T) {
	train := []float64{0, 1, 2, 3, 100, 200}

	tests := []struct {
		name  string
		order int
		want  []float64
	}{
		{name: "n=2", order: 2, want: []float64{1, 1, 1, 97, 100}},
		{name: "n=3", order: 3, want: []float64{2, 2, 98, 197}},
		{name: "n=len", order: 6, want: []float64{200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Series(train, tt.order)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(train)-tt.order+1)
		})
	}
}

func TestSeriesNonNegativeWithDuplicates(t *testing.T) {
	got, err := Series([]float64{5, 5, 5, 9}, 2)
	require.NoError(t, err)
	for _, v := range got {
		assert.GreaterOrEqual(t, v, 0.0)
	}
	assert.Equal(t, []float64{0, 0, 4}, got)
}

func TestSeriesEmptyTrain(t *testing.T) {
	got, err := Series(nil, 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSeriesInvalidOrder(t *testing.T) {
	_, err := Series([]float64{0, 1, 2}, 1)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = Series([]float64{0, 1, 2}, 4)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	_, err = Series(nil, 1)
	assert.ErrorIs(t, err, ErrInvalidOrder)
}
