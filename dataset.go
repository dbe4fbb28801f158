package binaural

import (
	"fmt"

	"github.com/tphakala/go-binaural/internal/hrir"
)

// Grid describes the sampling of an HRIR dataset.
type Grid = hrir.Grid

// Dataset is an HRIR set: one hemisphere of a distance × azimuth ×
// elevation grid plus the poles, mirrored at lookup time.
type Dataset = hrir.Dataset

// DefaultGrid returns the grid used by SynthesizeDataset: four log-spaced
// distance rings between the configured distance limits, 5° azimuth and 10°
// elevation spacing, 128 taps.
func DefaultGrid(cfg *Config) Grid {
	return Grid{
		DistanceSteps:  defaultDistanceSteps,
		AzimuthSteps:   defaultAzimuthSteps,
		ElevationSteps: defaultElevationSteps,
		Taps:           defaultTaps,
		DistanceBegin:  cfg.MinDistance,
		DistanceEnd:    cfg.MaxDistance,
		SampleRate:     cfg.SampleRate,
	}
}

// SynthesizeDataset builds a dataset from a spherical head model matching
// the configured head radius and speed of sound.
func SynthesizeDataset(cfg *Config, grid Grid) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ds, err := hrir.Synthesize(grid, cfg.HeadRadius, cfg.SpeedOfSound)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}
	return ds, nil
}

// AcquireDataset returns the process-wide dataset, calling load only when
// no other holder has it loaded. Call release when done; the dataset is
// dropped after the last release.
func AcquireDataset(load func() (*Dataset, error)) (ds *Dataset, release func(), err error) {
	field, release, err := hrir.Acquire(load)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}
	return field.Dataset(), release, nil
}

func checkDataset(cfg *Config, ds *Dataset) (*hrir.Field, error) {
	if ds == nil {
		return nil, fmt.Errorf("%w: dataset is nil", ErrInvalidDataset)
	}
	g := ds.Grid()
	if g.SampleRate != cfg.SampleRate {
		return nil, fmt.Errorf("%w: dataset rate %v does not match renderer rate %v",
			ErrInvalidDataset, g.SampleRate, cfg.SampleRate)
	}
	field, err := hrir.NewField(ds)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}
	return field, nil
}
