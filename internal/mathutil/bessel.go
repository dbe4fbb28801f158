// Package mathutil provides the small numeric helpers shared by the HRIR
// field, the filter designer and the renderer.
package mathutil

import (
	"math"
)

// BesselI0 computes the modified Bessel function of the first kind, order zero.
//
// The power series
//
//	I₀(x) = Σ ((x/2)^k / k!)²
//
// is summed until the next term no longer changes the result. It is only used
// when designing windows, never on the render path, so the series form is
// preferred over a piecewise polynomial fit.
func BesselI0(x float64) float64 {
	half := besselHalf * math.Abs(x)
	sum := 1.0
	term := 1.0

	for k := 1; k < besselMaxTerms; k++ {
		f := half / float64(k)
		term *= f * f
		sum += term
		if term < sum*besselSeriesEpsilon {
			break
		}
	}

	return sum
}

// KaiserBeta computes the Kaiser window β parameter from the desired
// stopband attenuation in decibels.
//
//   - att > 50 dB:      β = 0.1102·(att − 8.7)
//   - 21 ≤ att ≤ 50 dB: β = 0.5842·(att − 21)^0.4 + 0.07886·(att − 21)
//   - att < 21 dB:      β = 0
func KaiserBeta(attenuation float64) float64 {
	switch {
	case attenuation > kaiserAttHigh:
		return kaiserBetaHighCoeff * (attenuation - kaiserBetaHighOffset)
	case attenuation >= kaiserAttMedium:
		delta := attenuation - kaiserAttMedium
		return kaiserBetaMediumCoeff1*math.Pow(delta, kaiserBetaMediumPower) + kaiserBetaMediumCoeff2*delta
	default:
		return 0.0
	}
}
