package stats

import (
	"math"
)

// ShannonEntropy returns the entropy in bits of a distribution given as
// frequency counts. Zero counts contribute nothing.
func ShannonEntropy(counts []int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}

	var entropy float64
	for _, c := range counts {
		if c > 0 {
			p := float64(c) / float64(total)
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}

// NormalizedEntropy scales ShannonEntropy to [0, 1] by the maximum entropy
// of the non-empty categories. One category (or none) yields 0.
func NormalizedEntropy(counts []int) float64 {
	n := 0
	for _, c := range counts {
		if c > 0 {
			n++
		}
	}
	if n <= 1 {
		return 0
	}
	return ShannonEntropy(counts) / math.Log2(float64(n))
}
