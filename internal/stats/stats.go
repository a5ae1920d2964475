// Package stats provides the numeric summary and normalization helpers used
// by the workbench demonstrations. All functions treat NaN as a missing
// value: summaries skip it, transforms propagate it.
package stats

import (
	"errors"
	"math"
)

var (
	// ErrEmptyInput is returned when a transform receives no finite values.
	ErrEmptyInput = errors.New("stats: no finite values in input")

	// ErrZeroVariance is returned when a scale transform would divide by a
	// zero spread (all finite values identical).
	ErrZeroVariance = errors.New("stats: zero variance in input")
)

// Mean returns the arithmetic mean of the finite values in xs.
// Returns NaN when xs contains no finite values.
func Mean(xs []float64) float64 {
	sum, n := 0.0, 0
	for _, x := range xs {
		if isMissing(x) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// SD returns the sample standard deviation (n-1 denominator) of the finite
// values in xs. Returns NaN when fewer than two finite values are present.
func SD(xs []float64) float64 {
	m := Mean(xs)
	if math.IsNaN(m) {
		return math.NaN()
	}
	sum, n := 0.0, 0
	for _, x := range xs {
		if isMissing(x) {
			continue
		}
		d := x - m
		sum += d * d
		n++
	}
	if n < 2 {
		return math.NaN()
	}
	return math.Sqrt(sum / float64(n-1))
}

// ZScale returns xs transformed to zero mean and unit variance:
// (x - mean(xs)) / sd(xs) element-wise. Missing inputs stay missing.
func ZScale(xs []float64) ([]float64, error) {
	m := Mean(xs)
	if math.IsNaN(m) {
		return nil, ErrEmptyInput
	}
	sd := SD(xs)
	if math.IsNaN(sd) || sd == 0 {
		return nil, ErrZeroVariance
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		if isMissing(x) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (x - m) / sd
	}
	return out, nil
}

// Rescale01 maps the finite values of xs linearly onto [0, 1].
// Missing inputs stay missing.
func Rescale01(xs []float64) ([]float64, error) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		if isMissing(x) {
			continue
		}
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if math.IsInf(lo, 1) {
		return nil, ErrEmptyInput
	}
	if lo == hi {
		return nil, ErrZeroVariance
	}
	out := make([]float64, len(xs))
	for i, x := range xs {
		if isMissing(x) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (x - lo) / (hi - lo)
	}
	return out, nil
}

func isMissing(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0)
}
