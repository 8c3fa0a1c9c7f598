package electrical

// StandardBreakerSizes lists standard breaker ratings in amps, ascending.
var StandardBreakerSizes = []int{
	15, 20, 25, 30, 35, 40, 45, 50, 60, 70, 80, 90, 100, 110, 125, 150,
	175, 200, 225, 250, 300, 350, 400, 450, 500, 600, 700, 800,
}

// StandardKVASizes lists common dry-type transformer ratings, ascending.
var StandardKVASizes = []float64{15, 30, 45, 75, 112.5, 150, 225, 300, 500}

// NextBreakerSize returns the smallest standard breaker rating >= minAmps.
// ok is false when minAmps exceeds the largest standard size, in which case
// the largest size is returned.
func NextBreakerSize(minAmps float64) (size int, ok bool) {
	for _, s := range StandardBreakerSizes {
		if float64(s) >= minAmps {
			return s, true
		}
	}
	return StandardBreakerSizes[len(StandardBreakerSizes)-1], false
}

// IsStandardBreakerSize reports whether amps is a listed standard rating.
func IsStandardBreakerSize(amps float64) bool {
	for _, s := range StandardBreakerSizes {
		if float64(s) == amps {
			return true
		}
	}
	return false
}
