package binaural

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-binaural/internal/render"
)

// Interpolation selects how a moving source's filters are updated within a
// block.
type Interpolation = render.Interpolation

const (
	// InterpolationRealtime crossfades from the previous to the new filter
	// pair over each block. One lookup per moving source per block.
	InterpolationRealtime = render.InterpolationRealtime

	// InterpolationPath follows the straight line between the previous and
	// the new position with one lookup every few samples. Smoother for fast
	// sources at a higher cost.
	InterpolationPath = render.InterpolationPath
)

// Common errors returned by the renderer.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid renderer configuration")

	// ErrInvalidDataset indicates a dataset that cannot serve the
	// configuration.
	ErrInvalidDataset = errors.New("invalid HRIR dataset")

	// ErrUnknownSource indicates a scene referencing a source the renderer
	// has no slot for.
	ErrUnknownSource = errors.New("unknown source")
)

// Config holds renderer configuration.
type Config struct {
	// SampleRate is the internal rendering rate in Hz. It must match the
	// dataset's sample rate.
	SampleRate float64

	// HostRate is the rate of the blocks passed to Render. Zero means
	// SampleRate. When it differs, blocks are converted with linear
	// resampling on the way in and out.
	HostRate float64

	// MaxBlockSize is the largest host block passed to Render.
	MaxBlockSize int

	// MaxSources is the number of source slots. Source IDs range over
	// [0, MaxSources).
	MaxSources int

	// MinDistance and MaxDistance bound source distances in meters.
	MinDistance float64
	MaxDistance float64

	// SpeedOfSound is the initial propagation speed in m/s. Scenes may
	// change it within [MinSpeedOfSound, MaxSpeedOfSound].
	SpeedOfSound    float64
	MinSpeedOfSound float64
	MaxSpeedOfSound float64

	// HeadRadius is the distance from the head centre to each ear in meters.
	HeadRadius float64

	// EnableDoppler applies the propagation delay of each ear, which shifts
	// the pitch of moving sources.
	EnableDoppler bool

	// Interpolation selects the filter update strategy for moving sources.
	Interpolation Interpolation

	// EnableParallel renders the tracks of RenderTracks concurrently.
	EnableParallel bool
}

// DefaultConfig returns a configuration for 48 kHz rendering with Doppler.
func DefaultConfig() Config {
	return Config{
		SampleRate:      defaultSampleRate,
		MaxBlockSize:    defaultMaxBlockSize,
		MaxSources:      defaultMaxSources,
		MinDistance:     defaultMinDistance,
		MaxDistance:     defaultMaxDistance,
		SpeedOfSound:    defaultSpeedOfSound,
		MinSpeedOfSound: defaultMinSpeedOfSound,
		MaxSpeedOfSound: defaultMaxSpeedOfSound,
		HeadRadius:      defaultHeadRadius,
		EnableDoppler:   true,
		Interpolation:   InterpolationRealtime,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidConfig)
	}

	if c.HostRate < 0 || math.IsNaN(c.HostRate) || math.IsInf(c.HostRate, 0) {
		return fmt.Errorf("%w: host rate must be zero or positive", ErrInvalidConfig)
	}

	if c.MaxBlockSize < 1 || c.MaxBlockSize > maxBlockSize {
		return fmt.Errorf("%w: max block size must be 1-%d", ErrInvalidConfig, maxBlockSize)
	}

	if c.MaxSources < 1 || c.MaxSources > maxSources {
		return fmt.Errorf("%w: max sources must be 1-%d", ErrInvalidConfig, maxSources)
	}

	if !(c.MinDistance > 0) || !(c.MaxDistance >= c.MinDistance) || math.IsInf(c.MaxDistance, 0) {
		return fmt.Errorf("%w: distance range must satisfy 0 < min <= max", ErrInvalidConfig)
	}

	if !(c.MinSpeedOfSound > 0) || !(c.MaxSpeedOfSound >= c.MinSpeedOfSound) {
		return fmt.Errorf("%w: speed of sound range must satisfy 0 < min <= max", ErrInvalidConfig)
	}

	if c.SpeedOfSound < c.MinSpeedOfSound || c.SpeedOfSound > c.MaxSpeedOfSound {
		return fmt.Errorf("%w: speed of sound %v outside [%v, %v]",
			ErrInvalidConfig, c.SpeedOfSound, c.MinSpeedOfSound, c.MaxSpeedOfSound)
	}

	if !(c.HeadRadius > 0) || c.HeadRadius >= c.MinDistance {
		return fmt.Errorf("%w: head radius must be positive and below the minimum distance", ErrInvalidConfig)
	}

	if c.Interpolation != InterpolationRealtime && c.Interpolation != InterpolationPath {
		return fmt.Errorf("%w: unknown interpolation mode %d", ErrInvalidConfig, c.Interpolation)
	}

	return nil
}

// hostRate returns the effective host rate.
func (c *Config) hostRate() float64 {
	if c.HostRate == 0 {
		return c.SampleRate
	}
	return c.HostRate
}

func (c *Config) sourceSettings() render.Settings {
	return render.Settings{
		SampleRate:      c.SampleRate,
		SpeedOfSound:    c.SpeedOfSound,
		MinSpeedOfSound: c.MinSpeedOfSound,
		MinDistance:     c.MinDistance,
		MaxDistance:     c.MaxDistance,
		HeadRadius:      c.HeadRadius,
		EnableDoppler:   c.EnableDoppler,
		Interpolation:   c.Interpolation,
	}
}
