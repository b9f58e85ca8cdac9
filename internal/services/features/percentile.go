package features

import (
	"math"
	"sort"
	"strconv"
)

// DefaultPercentiles are reported when no percentile is requested.
var DefaultPercentiles = []float64{25, 50, 75, 99}

// Percentiles computes nearest-rank percentile bands of series, keyed "p25", "p50", ...
// For percentile p over n sorted values the index is ceil(p/100*n)-1, clamped to [0, n-1].
// It returns nil for an empty series. The input is not modified.
func Percentiles(series []float64, ps ...float64) map[string]float64 {
	if len(series) == 0 {
		return nil
	}
	if len(ps) == 0 {
		ps = DefaultPercentiles
	}

	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)

	n := len(sorted)
	out := make(map[string]float64, len(ps))
	for _, p := range ps {
		idx := int(math.Ceil(p/100*float64(n))) - 1
		if idx < 0 {
			idx = 0
		}
		if idx > n-1 {
			idx = n - 1
		}
		out[PercentileKey(p)] = sorted[idx]
	}
	return out
}

// PercentileKey formats p as "p25", "p99.9".
func PercentileKey(p float64) string {
	return "p" + strconv.FormatFloat(p, 'f', -1, 64)
}
