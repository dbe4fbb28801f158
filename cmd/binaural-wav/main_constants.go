package main

const (
	// Frames read from the input per block.
	blockFrames = 1024

	// Channel counts.
	monoChannels   = 1
	stereoChannels = 2

	// Sample format constants
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32
	pcmFormat       = 1

	// Conversion constants
	kHzToHz          = 1000
	maxInt16         = 32767.0
	maxInt24         = 8388607.0
	maxInt32         = 2147483647.0
	progressInterval = 10 // Print progress every N%
	percentScale     = 100
	degToRad         = 3.141592653589793 / 180

	// CLI defaults
	defaultRateKHz    = 48.0
	defaultRadius     = 2.0
	defaultPeriod     = 8.0  // seconds per orbit
	defaultSpeed      = 20.0 // fly-by speed in m/s
	defaultHalfLength = 40.0 // fly-by starts and ends this far from the closest point
	defaultElevation  = 90.0 // degrees, horizontal plane
	defaultTail       = 0.5  // seconds rendered after the input ends
	minRequiredArgs   = 2
)
