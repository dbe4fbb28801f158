// Package testutil provides reusable test helpers for the binaural renderer tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-10
	SampleTolerance  = 1e-9
	EnergyTolerance  = 1e-6
)

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [min, max].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertRelativeError verifies that the relative error between actual and expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		relError, tolerance, expected, actual)
}

// AssertInRange verifies that a value is within [min, max].
func AssertInRange(t *testing.T, value, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	if value < minVal || value > maxVal {
		return assert.Fail(t, "value out of range",
			"value %f is outside range [%f, %f]", value, minVal, maxVal)
	}
	return true
}

// AssertSlicesInDelta verifies two slices have equal length and match element-wise within delta.
func AssertSlicesInDelta(t *testing.T, expected, actual []float64, delta float64, msgAndArgs ...any) bool {
	t.Helper()
	if !assert.Len(t, actual, len(expected), msgAndArgs...) {
		return false
	}
	for i := range expected {
		if math.Abs(expected[i]-actual[i]) > delta {
			return assert.Fail(t, "slices differ",
				"index %d: expected %g, got %g (delta %g)", i, expected[i], actual[i], delta)
		}
	}
	return true
}

// AbsSum returns Σ|s[i]|, the L1 norm used for energy comparisons.
func AbsSum(s []float64) float64 {
	return floats.Norm(s, 1)
}

// Sine generates n samples of a unit sine at freq Hz.
func Sine(n int, freq, sampleRate float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return out
}

// Ramp generates 1, 2, 3, ... n, which makes delays easy to read off.
func Ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

// Noise generates deterministic pseudo-random samples in [-1, 1].
func Noise(n int, seed uint32) []float64 {
	const (
		lcgMul = 1664525
		lcgAdd = 1013904223
		scale  = 1.0 / (1 << 31)
	)
	out := make([]float64, n)
	state := seed
	for i := range out {
		state = state*lcgMul + lcgAdd
		out[i] = float64(int32(state)) * scale
	}
	return out
}

// DominantFrequency returns the frequency in Hz of the largest non-DC bin of s.
func DominantFrequency(s []float64, sampleRate float64) float64 {
	fft := fourier.NewFFT(len(s))
	coeffs := fft.Coefficients(nil, s)

	best, bestMag := 0, 0.0
	for i := 1; i < len(coeffs); i++ {
		re, im := real(coeffs[i]), imag(coeffs[i])
		if mag := re*re + im*im; mag > bestMag {
			best, bestMag = i, mag
		}
	}
	return fft.Freq(best) * sampleRate
}
