package features

import "math"

// DefaultVolatilityWindow is the number of points read by Volatility.
const DefaultVolatilityWindow = 7

// RelativeReturns computes r_t = (x_t - x_{t-1}) / x_{t-1}.
// Steps with a zero previous value are skipped.
func RelativeReturns(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev := series[i-1]
		if prev == 0 {
			continue
		}
		out = append(out, (series[i]-prev)/prev)
	}
	return out
}

// Volatility is the sample standard deviation of relative returns over the last
// window points, in percent. It returns 0 when the series is shorter than window
// or fewer than two returns remain.
func Volatility(series []float64, window int) float64 {
	if window < 2 || len(series) < window {
		return 0
	}
	returns := RelativeReturns(series[len(series)-window:])
	if len(returns) < 2 {
		return 0
	}
	_, sd := meanStdDev(returns, true)
	return sd * 100
}

// ZScore is (value - mean) / stddev of series using the population deviation.
// ok is false when series has fewer than minPoints values or no dispersion.
func ZScore(value float64, series []float64, minPoints int) (z float64, ok bool) {
	if len(series) == 0 || len(series) < minPoints {
		return 0, false
	}
	mean, sd := meanStdDev(series, false)
	if sd == 0 {
		return 0, false
	}
	return (value - mean) / sd, true
}

// Tail returns the last n values of series, or all of them when shorter.
func Tail(series []float64, n int) []float64 {
	if n <= 0 || len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}

func meanStdDev(xs []float64, sample bool) (mean, sd float64) {
	n := float64(len(xs))
	for _, x := range xs {
		mean += x
	}
	mean /= n

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	denom := n
	if sample {
		denom = n - 1
	}
	if denom <= 0 {
		return mean, 0
	}
	return mean, math.Sqrt(ss / denom)
}
