// Package stats computes percentile thresholds and summaries over the
// result table.
package stats

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// DefaultPercentiles are the thresholds reported when none are requested.
var DefaultPercentiles = []int{25, 50, 75, 80, 90, 95}

// Percentiles returns the value at each requested percentile of data using
// linear interpolation between closest ranks. data must be non-empty and
// every percentile must lie in [0, 100].
func Percentiles(data []float64, percentiles []int) (map[int]float64, error) {
	if len(data) == 0 {
		return nil, eris.New("stats: percentiles of empty data")
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	out := make(map[int]float64, len(percentiles))
	for _, p := range percentiles {
		if p < 0 || p > 100 {
			return nil, eris.Errorf("stats: percentile %d out of range [0, 100]", p)
		}
		out[p] = interpolate(sorted, float64(p))
	}
	return out, nil
}

func interpolate(sorted []float64, p float64) float64 {
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Ints converts integer samples to float64 for Percentiles.
func Ints(data []int) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}
