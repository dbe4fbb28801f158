package binaural

// Channel constants
const (
	stereoChannels = 2 // Stereo channel count (used by interleave functions)
)

// Common sample rates.
const (
	// RateCD is the CD quality sample rate.
	RateCD = 44100

	// RateDAT is the DAT/DVD sample rate.
	RateDAT = 48000

	// RateHiRes96 is the 2x DAT sample rate.
	RateHiRes96 = 96000
)

// Default configuration
const (
	defaultSampleRate      = RateDAT
	defaultMaxBlockSize    = 512
	defaultMaxSources      = 16
	defaultMinDistance     = 0.2   // m, inside this the head model breaks down
	defaultMaxDistance     = 50.0  // m
	defaultSpeedOfSound    = 343.0 // m/s, air at 20 °C
	defaultMinSpeedOfSound = 150.0 // m/s
	defaultMaxSpeedOfSound = 1500.0
	defaultHeadRadius      = 0.0875 // m, average adult head
)

// Default synthetic HRIR grid
const (
	defaultDistanceSteps  = 4
	defaultAzimuthSteps   = 37 // 5° spacing over one hemisphere
	defaultElevationSteps = 17 // 10° spacing between the poles
	defaultTaps           = 128
)

// Limits
const (
	maxSources   = 1024
	maxBlockSize = 1 << 16
)
