package mcint

// Finalize converts a combined sum into the integral estimate volume * total / n.
//
// A zero volume yields exactly 0 whatever the integrand produced, and n == 0 yields 0
// as the empty mean.
func Finalize(volume, total float64, n uint64) float64 {
	if volume == 0 || n == 0 {
		return 0
	}

	return volume * total / float64(n)
}
