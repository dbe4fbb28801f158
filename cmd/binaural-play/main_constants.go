package main

import "time"

// Default command-line flag values
const (
	defaultDeviceRate   = 48000
	defaultInternalRate = 48000.0
	defaultVoices       = 3
	defaultRadius       = 1.5
	defaultPeriod       = 6.0 // seconds per orbit
	defaultBaseFreq     = 220.0
	defaultDeviceBuffer = 50 * time.Millisecond
	defaultSceneTick    = 10 * time.Millisecond
	defaultStatsEvery   = 2 * time.Second
)

// Playback format
const (
	stereoChannels  = 2
	bytesPerSample  = 4 // float32
	bytesPerFrame   = stereoChannels * bytesPerSample
	renderBlock     = 256  // frames rendered per Render call
	maxReadFrames   = 4096 // frames converted per pass through Read
	voiceLevel      = 0.25 // total level shared by all voices
	radiusWobble    = 0.5  // relative radius modulation
	elevationWobble = 0.4  // radians
	wobbleRatio     = 0.37 // wobble speed relative to the orbit
	harmonicSpacing = 1.5  // frequency ratio between neighboring voices
	minVoices       = 1
)
