package ephemeris

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// LagrangeFilterSize is the default number of samples weighted by Lagrange.
const LagrangeFilterSize = 8

// Bilinear linearly interpolates values at t. times must be sorted ascending and match values in
// length. Queries before the first or after the last sample return that sample unchanged.
func Bilinear(t float64, times []float64, values []r3.Vector) r3.Vector {
	n := len(times)
	if n == 0 {
		return r3.Vector{}
	}
	i := sort.SearchFloat64s(times, t)
	if i == 0 {
		return values[0]
	}
	if i == n {
		return values[n-1]
	}

	t0, t1 := times[i-1], times[i]
	v0, v1 := values[i-1], values[i]
	f := (t0 - t) / (t0 - t1)
	return v0.Add(v1.Sub(v0).Mul(f))
}

// LagrangeWindow returns the sample indices whose Lagrange weights are summed for t.
// lineSamplingPeriod decides which sample counts as coincident with t; that sample is dropped and
// the window widened by one to keep the same number of contributors.
func LagrangeWindow(t float64, times []float64, lineSamplingPeriod float64) ([]int, error) {
	n := len(times)
	if n < LagrangeFilterSize {
		return nil, errors.Wrapf(ErrNotEnoughSamples, "lagrange needs %d samples, have %d", LagrangeFilterSize, n)
	}

	filterSize := LagrangeFilterSize
	half := filterSize / 2
	if n <= filterSize {
		filterSize = n / 2
		half = filterSize / 2
	}
	if t < times[half] || t >= times[n-half] {
		return nil, errors.Wrapf(ErrOutOfRange, "time %v outside [%v, %v)", t, times[half], times[n-half])
	}

	// First sample at or after t, never left of the half window.
	samp0 := half + sort.SearchFloat64s(times[half:], t)
	bump := 0
	if samp0 < n && math.Abs(times[samp0]-t) < lineSamplingPeriod/2 {
		bump = 1
	}

	count := filterSize + bump
	start := samp0 - half
	if start+count > n {
		start = n - count
	}
	if start < 0 {
		start = 0
	}

	window := make([]int, 0, filterSize)
	for i := start; i < start+count && i < n; i++ {
		if bump == 1 && i == samp0 {
			continue
		}
		window = append(window, i)
	}
	return window, nil
}

// Lagrange evaluates the Lagrange polynomial through the windowed samples around t.
func Lagrange(t float64, times []float64, values []r3.Vector, lineSamplingPeriod float64) (r3.Vector, error) {
	window, err := LagrangeWindow(t, times, lineSamplingPeriod)
	if err != nil {
		return r3.Vector{}, err
	}

	var sum r3.Vector
	for _, j := range window {
		numerator, denominator := 1.0, 1.0
		for _, i := range window {
			if i == j {
				continue
			}
			numerator *= t - times[i]
			denominator *= times[j] - times[i]
		}
		sum = sum.Add(values[j].Mul(numerator / denominator))
	}
	return sum, nil
}
