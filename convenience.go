package binaural

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/go-binaural/internal/simdops"
)

// Path returns the position of a source t seconds after the start.
type Path func(t float64) Spherical

// Track is one source of an offline render.
type Track struct {
	Input []float64
	Path  Path
	Gain  float64
}

// RenderOffline renders a single mono input moving along path and returns
// the left and right channels, as long as the input, at the host rate.
func RenderOffline(cfg *Config, ds *Dataset, input []float64, path Path) (left, right []float64, err error) {
	return RenderTracks(cfg, ds, []Track{{Input: input, Path: path}})
}

// RenderTracks renders several tracks and mixes them. The output is as long
// as the longest input. With cfg.EnableParallel each track is rendered on
// its own goroutine; the result is identical either way.
func RenderTracks(cfg *Config, ds *Dataset, tracks []Track) (left, right []float64, err error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	length := 0
	for i, tr := range tracks {
		if tr.Path == nil {
			return nil, nil, fmt.Errorf("%w: track %d has no path", ErrInvalidConfig, i)
		}
		length = max(length, len(tr.Input))
	}

	outputs := make([][2][]float64, len(tracks))

	if cfg.EnableParallel && len(tracks) > 1 {
		g, ctx := errgroup.WithContext(context.Background())
		for i := range tracks {
			g.Go(func() error {
				var err error
				outputs[i], err = renderTrack(ctx, cfg, ds, &tracks[i], length)
				if err != nil {
					return fmt.Errorf("track %d: %w", i, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	} else {
		for i := range tracks {
			outputs[i], err = renderTrack(context.Background(), cfg, ds, &tracks[i], length)
			if err != nil {
				return nil, nil, fmt.Errorf("track %d: %w", i, err)
			}
		}
	}

	left = make([]float64, length)
	right = make([]float64, length)
	for _, out := range outputs {
		for j := range length {
			left[j] += out[0][j]
			right[j] += out[1][j]
		}
	}
	return left, right, nil
}

func renderTrack(ctx context.Context, cfg *Config, ds *Dataset, tr *Track, length int) ([2][]float64, error) {
	c := *cfg
	c.MaxSources = 1

	r, err := New(&c, ds)
	if err != nil {
		return [2][]float64{}, err
	}

	input := tr.Input
	if len(input) < length {
		input = make([]float64, length)
		copy(input, tr.Input)
	}

	out := [2][]float64{make([]float64, length), make([]float64, length)}
	scene := Scene{Sources: make([]Source, 1)}
	inputs := make([][]float64, 1)
	hostRate := c.hostRate()

	for start := 0; start < length; start += c.MaxBlockSize {
		if err := ctx.Err(); err != nil {
			return [2][]float64{}, err
		}
		end := min(start+c.MaxBlockSize, length)

		scene.Sources[0] = Source{Position: tr.Path(float64(start) / hostRate), Gain: tr.Gain}
		if err := r.Publish(scene); err != nil {
			return [2][]float64{}, err
		}

		inputs[0] = input[start:end]
		if !r.Render(inputs, out[0][start:end], out[1][start:end]) {
			return [2][]float64{}, fmt.Errorf("scene unavailable at sample %d", start)
		}
	}
	return out, nil
}

// InterleaveToStereo converts two mono channels to interleaved stereo.
// Output format: [L0, R0, L1, R1, L2, R2, ...]
func InterleaveToStereo(left, right []float64) []float64 {
	n := min(len(left), len(right))
	result := make([]float64, n*stereoChannels)
	simdops.Float64Ops().Interleave2(result, left[:n], right[:n])
	return result
}

// DeinterleaveFromStereo converts interleaved stereo to two mono channels.
// Input format: [L0, R0, L1, R1, L2, R2, ...]
func DeinterleaveFromStereo(interleaved []float64) (left, right []float64) {
	numSamples := len(interleaved) / stereoChannels
	left = make([]float64, numSamples)
	right = make([]float64, numSamples)
	for i := range numSamples {
		left[i] = interleaved[i*stereoChannels]
		right[i] = interleaved[i*stereoChannels+1]
	}
	return left, right
}
