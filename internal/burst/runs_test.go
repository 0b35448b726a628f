package burst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuns(t *testing.T) {
	tests := []struct {
		name  string
		flags []bool
		want  []Run
	}{
		{name: "empty", flags: nil, want: []Run{}},
		{name: "all unset", flags: []bool{false, false}, want: []Run{}},
		{name: "all set", flags: []bool{true, true, true}, want: []Run{{First: 0, Last: 2}}},
		{name: "single set", flags: []bool{true}, want: []Run{{First: 0, Last: 0}}},
		{name: "leading", flags: []bool{true, true, false, false}, want: []Run{{First: 0, Last: 1}}},
		{name: "trailing", flags: []bool{false, false, true, true}, want: []Run{{First: 2, Last: 3}}},
		{
			name:  "both ends",
			flags: []bool{true, false, false, true},
			want:  []Run{{First: 0, Last: 0}, {First: 3, Last: 3}},
		},
		{
			name:  "middle runs",
			flags: []bool{false, true, true, false, true, false},
			want:  []Run{{First: 1, Last: 2}, {First: 4, Last: 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Runs(tt.flags))
		})
	}
}
