package engine

// Resampler constants
const (
	// Samples of history kept before the current block (indices -1 and -2).
	historyPrev1 = -1
	historyPrev2 = -2

	// Extra output capacity beyond ⌈N_out⌉ reported by MaxOutputLen.
	resampleLenMargin = 1
)

// Doppler line constants
const (
	// dopplerUnanchored marks a line whose previous delay is not yet known.
	dopplerUnanchored = -1.0

	// Cells reserved past the maximum delay for the ceiling of fractional
	// write positions and the read cursor.
	dopplerMargin = 2

	// maxSlopeRatio bounds the ratio of the previous block's delay slope to
	// the current one. Ratios in [0, 2] keep the quadratic trajectory
	// within the block's start and target delay.
	maxSlopeRatio = 2.0

	// dopplerGrowthFactor multiplies the allocated distance when a source
	// moves beyond it.
	dopplerGrowthFactor = 2.0
)
