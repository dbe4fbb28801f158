package mathutil

import "math"

// Bessel series constants
const (
	// Power series for I₀ converges quickly; terms below this relative size are dropped.
	besselSeriesEpsilon = 1e-17

	// Hard stop for the series loop (x up to ~700 converges well before this).
	besselMaxTerms = 500

	// I₀(x) = Σ ((x/2)^k / k!)², so the series works on x/2.
	besselHalf = 0.5
)

// Kaiser β formula constants (Kaiser & Schafer)
const (
	kaiserAttHigh          = 50.0    // High attenuation threshold (dB)
	kaiserAttMedium        = 21.0    // Medium attenuation threshold (dB)
	kaiserBetaHighCoeff    = 0.1102  // β slope above 50 dB
	kaiserBetaHighOffset   = 8.7     // β offset above 50 dB
	kaiserBetaMediumCoeff1 = 0.5842  // Primary coefficient between 21 and 50 dB
	kaiserBetaMediumPower  = 0.4     // Exponent between 21 and 50 dB
	kaiserBetaMediumCoeff2 = 0.07886 // Linear coefficient between 21 and 50 dB
)

// Angle constants
const (
	// TwoPi is one full turn in radians.
	TwoPi = 2 * math.Pi

	// HalfPi is a quarter turn in radians.
	HalfPi = math.Pi / 2
)

// Lagrange stencil constants
const (
	// lagrangeTieBreak is the fraction at which the upper neighbor is preferred.
	lagrangeTieBreak = 0.5

	lagrangeHalf = 0.5
)
