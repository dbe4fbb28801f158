// Package filter designs the short FIR kernels used to synthesize HRIR sets.
package filter

import (
	"fmt"
	"math"

	"github.com/tphakala/go-binaural/internal/mathutil"
	"github.com/tphakala/go-binaural/internal/simdops"
)

const (
	minFilterTaps = 2
	maxFilterTaps = 4096

	// Window normalization
	windowHalf = 2.0

	// Sinc limit handling
	sincZeroThreshold = 1e-10

	// Normalized frequencies are expressed relative to the sample rate.
	nyquist = 0.5
)

// KaiserWindow evaluates a Kaiser window of half-width halfWidth centered at
// center, sampled at n = 0 .. length-1. Samples outside the support are zero.
//
// With center = (length-1)/2 and halfWidth = center this is the classic
// symmetric window; the fractional-delay designer shifts the center instead.
func KaiserWindow(length int, center, halfWidth, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}

	window := make([]float64, length)
	if halfWidth <= 0 {
		idx := int(math.Round(center))
		if idx >= 0 && idx < length {
			window[idx] = 1
		}
		return window
	}

	i0Beta := mathutil.BesselI0(beta)
	for n := range length {
		x := (float64(n) - center) / halfWidth
		if x < -1 || x > 1 {
			continue
		}
		window[n] = mathutil.BesselI0(beta*math.Sqrt(1-x*x)) / i0Beta
	}

	return window
}

// DelayParams describes a band-limited fractional delay.
type DelayParams struct {
	// NumTaps is the kernel length.
	NumTaps int

	// Delay is the delay in samples, measured from tap 0. It may be fractional.
	Delay float64

	// Cutoff is the normalized low-pass cutoff (0, 0.5].
	Cutoff float64

	// Attenuation is the Kaiser stopband attenuation in dB.
	Attenuation float64

	// Gain is the DC gain of the kernel.
	Gain float64
}

// Validate checks if the delay parameters are usable.
func (p *DelayParams) Validate() error {
	if p.NumTaps < minFilterTaps || p.NumTaps > maxFilterTaps {
		return fmt.Errorf("filter length %d out of range [%d, %d]", p.NumTaps, minFilterTaps, maxFilterTaps)
	}
	if p.Delay < 0 || p.Delay > float64(p.NumTaps-1) {
		return fmt.Errorf("delay %f outside kernel span [0, %d]", p.Delay, p.NumTaps-1)
	}
	if p.Cutoff <= 0 || p.Cutoff > nyquist {
		return fmt.Errorf("invalid cutoff frequency: %f (must be in (0, 0.5])", p.Cutoff)
	}
	if p.Attenuation < 0 {
		return fmt.Errorf("invalid attenuation: %f dB (must be positive)", p.Attenuation)
	}
	return nil
}

// FractionalDelay designs a Kaiser-windowed sinc that delays its input by
// p.Delay samples and low-passes it at p.Cutoff. The window is centered on the
// delay and reaches as far as the nearer kernel edge, so short kernels stay
// causal for small delays.
func FractionalDelay(p DelayParams) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	halfWidth := math.Min(p.Delay, float64(p.NumTaps-1)-p.Delay)
	// A one-sided window would collapse to a single tap; keep at least one
	// sample of support on each side.
	halfWidth = math.Max(halfWidth, 1)

	window := KaiserWindow(p.NumTaps, p.Delay, halfWidth, mathutil.KaiserBeta(p.Attenuation))

	kernel := make([]float64, p.NumTaps)
	for n := range p.NumTaps {
		x := float64(n) - p.Delay
		var sinc float64
		if math.Abs(x) < sincZeroThreshold {
			sinc = windowHalf * p.Cutoff
		} else {
			sinc = math.Sin(windowHalf*math.Pi*p.Cutoff*x) / (math.Pi * x)
		}
		kernel[n] = sinc * window[n]
	}

	ops := simdops.Float64Ops()
	sum := ops.Sum(kernel)
	if math.Abs(sum) > sincZeroThreshold {
		ops.Scale(kernel, kernel, p.Gain/sum)
	}

	return kernel, nil
}

// Magnitude evaluates |H(e^jω)| of an FIR kernel at normalized frequency freq.
func Magnitude(coeffs []float64, freq float64) float64 {
	omega := windowHalf * math.Pi * freq
	var re, im float64
	for n, h := range coeffs {
		re += h * math.Cos(omega*float64(n))
		im -= h * math.Sin(omega*float64(n))
	}
	return math.Hypot(re, im)
}

// MagnitudeDB converts linear magnitude to decibels.
func MagnitudeDB(magnitude float64) float64 {
	const (
		minMagnitude = 1e-10 // Avoid log(0)
		dbMultiplier = 20.0  // 20*log10 for magnitude
	)

	if magnitude < minMagnitude {
		magnitude = minMagnitude
	}
	return dbMultiplier * math.Log10(magnitude)
}
