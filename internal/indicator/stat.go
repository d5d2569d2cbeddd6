package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-ensemble/internal/types"
)

// Mean returns the arithmetic mean of values. Returns 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	mean := Mean(values)

	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}

	return math.Sqrt(sumSq / float64(len(values)))
}

// SampleStdDev returns the sample standard deviation (n-1 denominator).
// Returns 0 when fewer than two values are given.
func SampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	mean := Mean(values)

	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}

	return math.Sqrt(sumSq / float64(len(values)-1))
}

// ZScore returns how many standard deviations value is from the mean of
// window. Returns 0 when the window has zero deviation.
func ZScore(value float64, window []float64) float64 {
	sigma := StdDev(window)
	if sigma == 0 {
		return 0
	}

	return (value - Mean(window)) / sigma
}

// Returns computes simple per-bar returns of the close prices. The result
// has len(series)-1 entries.
func Returns(series *types.MarketSeries) []float64 {
	n := series.Len()
	if n < 2 {
		return nil
	}

	returns := make([]float64, 0, n-1)

	for i := 1; i < n; i++ {
		prev := series.At(i - 1).Close
		if prev == 0 {
			returns = append(returns, 0)

			continue
		}

		returns = append(returns, series.At(i).Close/prev-1)
	}

	return returns
}

// RollingVolatility returns the standard deviation of the last period
// returns of the series.
func RollingVolatility(series *types.MarketSeries, period int) float64 {
	returns := Returns(series)
	if len(returns) < period {
		return StdDev(returns)
	}

	return StdDev(returns[len(returns)-period:])
}

// VolumeZScore returns the z-score of the last bar's volume against the
// trailing period bars.
func VolumeZScore(series *types.MarketSeries, period int) float64 {
	n := series.Len()
	if n < period+1 {
		return 0
	}

	window := make([]float64, period)
	for i := 0; i < period; i++ {
		window[i] = series.At(n - 1 - period + i).Volume
	}

	return ZScore(series.Last().Volume, window)
}

// TailCloses returns the last n closes of the series. The series must hold
// at least n bars.
func TailCloses(series *types.MarketSeries, n int) []float64 {
	total := series.Len()

	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = series.At(total - n + i).Close
	}

	return closes
}
