package sampler

import "github.com/arloliu/mcint/types"

// Volume returns the product of all dimension spans.
//
// A single zero-width dimension makes the volume exactly 0.
func Volume(bounds []types.Bound) float64 {
	if len(bounds) == 0 {
		return 0
	}

	v := 1.0
	for _, b := range bounds {
		span := b.Span()
		if span == 0 {
			return 0
		}
		v *= span
	}

	return v
}
