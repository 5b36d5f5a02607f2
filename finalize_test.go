package mcint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFinalize(t *testing.T) {
	tests := []struct {
		name   string
		volume float64
		total  float64
		n      uint64
		want   float64
	}{
		{"constant over unit span", 10, 5000, 1000, 50},
		{"zero volume ignores the sum", 0, 12345, 1000, 0},
		{"empty budget", 10, 0, 0, 0},
		{"negative integrand", 2, -40, 20, -4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, Finalize(tt.volume, tt.total, tt.n), 1e-12)
		})
	}
}
