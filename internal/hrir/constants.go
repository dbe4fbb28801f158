package hrir

// Grid limits
const (
	minAzimuthSteps   = 2
	minElevationSteps = 1
	minDistanceSteps  = 1
	minTaps           = 2
	maxTaps           = 4096

	// Channels per filter pair.
	channels = 2

	// Pole indices within a distance ring.
	poleAbove = 0
	poleBelow = 1
	poles     = 2
)

// Lookup weights
const (
	// The azimuth-direction and elevation-direction estimates are averaged.
	estimateWeight = 0.5
)

// Spherical-head model constants
const (
	// Samples of lead-in before the earliest arrival so the windowed sinc
	// has support on both sides.
	synthLeadIn = 8.0

	// Samples reserved after the latest arrival.
	synthTail = 8.0

	// Kaiser stopband attenuation of the fractional-delay kernels (dB).
	synthAttenuation = 60.0

	// Normalized cutoff for a source straight ahead at ear level.
	synthCutoff = 0.45

	// Cutoff reduction for a source directly below (elevation cue).
	synthElevationDarkening = 0.12

	// Cutoff reduction for a source directly behind (front/back cue).
	synthRearDarkening = 0.08

	// Gain of the fully shadowed ear relative to the ipsilateral ear.
	synthShadowFloor = 0.25

	// Contralateral gain follows (1 + cosθ) / 2 between the floor and 1.
	synthShadowHalf = 0.5
)
