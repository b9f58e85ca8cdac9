package features

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentilesNearestRank(t *testing.T) {
	series := []float64{5, 1, 4, 2, 3}

	got := Percentiles(series)
	require.Len(t, got, 4)
	// n=5: p25 -> ceil(1.25)-1 = 1, p50 -> 2, p75 -> ceil(3.75)-1 = 3, p99 -> 4
	assert.Equal(t, 2.0, got["p25"])
	assert.Equal(t, 3.0, got["p50"])
	assert.Equal(t, 4.0, got["p75"])
	assert.Equal(t, 5.0, got["p99"])

	// input left untouched
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, series)
}

func TestPercentilesOneToTen(t *testing.T) {
	got := Percentiles([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	assert.Equal(t, 3.0, got["p25"])
	assert.Equal(t, 5.0, got["p50"])
	assert.Equal(t, 8.0, got["p75"])
	assert.Equal(t, 10.0, got["p99"])
}

func TestPercentilesAreOrdered(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	for i := 0; i < 200; i++ {
		series := make([]float64, 1+rng.IntN(120))
		for j := range series {
			series[j] = 3 + rng.Float64()*3
		}
		got := Percentiles(series)
		require.Len(t, got, 4)
		assert.LessOrEqual(t, got["p25"], got["p50"])
		assert.LessOrEqual(t, got["p50"], got["p75"])
		assert.LessOrEqual(t, got["p75"], got["p99"])
	}
}

func TestPercentilesEdgeCases(t *testing.T) {
	assert.Nil(t, Percentiles(nil))
	assert.Nil(t, Percentiles([]float64{}))

	single := Percentiles([]float64{4.33}, 0, 50, 100)
	assert.Equal(t, 4.33, single["p0"])
	assert.Equal(t, 4.33, single["p50"])
	assert.Equal(t, 4.33, single["p100"])

	custom := Percentiles([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 10, 90)
	assert.Equal(t, 1.0, custom["p10"])
	assert.Equal(t, 9.0, custom["p90"])
	assert.Equal(t, "p99.5", PercentileKey(99.5))
}

func TestVolatilityNeedsAFullWindow(t *testing.T) {
	assert.Zero(t, Volatility([]float64{1, 2, 3}, 7))
	assert.Zero(t, Volatility([]float64{1, 2, 3}, 1))
	assert.Zero(t, Volatility(nil, 7))
}

func TestVolatilityFlatSeriesIsZero(t *testing.T) {
	flat := []float64{4.33, 4.33, 4.33, 4.33, 4.33, 4.33, 4.33}
	assert.Zero(t, Volatility(flat, 7))
}

func TestVolatilitySampleStdDevOfReturns(t *testing.T) {
	// returns over the last 3 points: +10%, -10%
	series := []float64{999, 100, 110, 99}
	// mean 0, sample variance = (0.01+0.01)/1
	want := math.Sqrt(0.02) * 100
	assert.InDelta(t, want, Volatility(series, 3), 1e-9)
}

func TestVolatilitySkipsZeroPrevious(t *testing.T) {
	series := []float64{0, 1, 1.1, 1.21}
	// first step skipped, remaining returns 10%, 10%
	assert.InDelta(t, 0, Volatility(series, 4), 1e-9)

	onlyOne := []float64{0, 1, 2}
	assert.Zero(t, Volatility(onlyOne, 3))
}

func TestZScore(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	z, ok := ZScore(5.5, series, 10)
	require.True(t, ok)
	assert.InDelta(t, 0, z, 1e-12)

	_, ok = ZScore(5, series[:9], 10)
	assert.False(t, ok)

	_, ok = ZScore(5, []float64{2, 2, 2, 2, 2, 2, 2, 2, 2, 2}, 10)
	assert.False(t, ok)
}

func TestTail(t *testing.T) {
	assert.Equal(t, []float64{3, 4}, Tail([]float64{1, 2, 3, 4}, 2))
	assert.Equal(t, []float64{1, 2}, Tail([]float64{1, 2}, 30))
}
