package binaural

import (
	"fmt"

	"github.com/tphakala/go-binaural/internal/mathutil"
	"github.com/tphakala/go-binaural/internal/pipeline"
	"github.com/tphakala/go-binaural/internal/render"
	"github.com/tphakala/go-binaural/internal/shared"
	"github.com/tphakala/go-binaural/internal/simdops"
)

// sceneReaders is the number of goroutines reading the published scene:
// the audio goroutine.
const sceneReaders = 1

// Renderer mixes up to MaxSources mono sources into a binaural stereo pair.
//
// Control goroutines describe the sources with Publish or TryPublish; one
// audio goroutine calls Render per block. Render never blocks and never
// allocates unless a source moves beyond the configured distance range with
// Doppler enabled.
type Renderer struct {
	cfg   Config
	scene *shared.Resource[Scene]

	voices []*render.SourceRenderer
	active []bool
	seen   []bool
	gained [][]float64

	bridge   *pipeline.Bridge
	renderFn pipeline.RenderFunc
	current  *Scene
	speed    float64
}

// New creates a renderer for cfg using ds. All buffers are allocated here.
func New(cfg *Config, ds *Dataset) (*Renderer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	field, err := checkDataset(cfg, ds)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		cfg:    *cfg,
		voices: make([]*render.SourceRenderer, cfg.MaxSources),
		active: make([]bool, cfg.MaxSources),
		seen:   make([]bool, cfg.MaxSources),
		gained: make([][]float64, cfg.MaxSources),
		speed:  cfg.SpeedOfSound,
	}

	r.bridge, err = pipeline.NewBridge(cfg.hostRate(), cfg.SampleRate, cfg.MaxBlockSize, cfg.MaxSources)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	internalBlock := r.bridge.InternalBlockMax()

	settings := cfg.sourceSettings()
	for i := range r.voices {
		v := render.New(field, settings)
		if err := v.AllocateForMaxBufferSize(internalBlock); err != nil {
			return nil, fmt.Errorf("%w: source %d: %w", ErrInvalidConfig, i, err)
		}
		r.voices[i] = v
		r.gained[i] = make([]float64, internalBlock)
	}

	initial := Scene{Sources: make([]Source, 0, cfg.MaxSources)}
	r.scene = shared.New(sceneReaders, initial, shared.WithCopy(func(dst, src *Scene) {
		if cap(dst.Sources) < cfg.MaxSources {
			dst.Sources = make([]Source, 0, cfg.MaxSources)
		}
		copyScene(dst, src)
	}))
	r.renderFn = r.renderInternal

	return r, nil
}

// Config returns the renderer configuration.
func (r *Renderer) Config() Config {
	return r.cfg
}

// Latency returns the delay added by host-rate conversion in host samples.
func (r *Renderer) Latency() float64 {
	return r.bridge.Latency()
}

// checkScene validates source IDs.
func (r *Renderer) checkScene(scene *Scene) error {
	if len(scene.Sources) > r.cfg.MaxSources {
		return fmt.Errorf("%w: %d sources exceed the limit of %d",
			ErrUnknownSource, len(scene.Sources), r.cfg.MaxSources)
	}
	used := make(map[int]bool, len(scene.Sources))
	for _, s := range scene.Sources {
		if s.ID < 0 || s.ID >= r.cfg.MaxSources {
			return fmt.Errorf("%w: id %d outside [0, %d)", ErrUnknownSource, s.ID, r.cfg.MaxSources)
		}
		if used[s.ID] {
			return fmt.Errorf("%w: id %d appears twice", ErrUnknownSource, s.ID)
		}
		used[s.ID] = true
	}
	return nil
}

// Publish makes scene the input of subsequent blocks. It blocks until the
// audio goroutine has released its copy and must not be called from it.
func (r *Renderer) Publish(scene Scene) error {
	if err := r.checkScene(&scene); err != nil {
		return err
	}
	r.scene.Publish(scene)
	return nil
}

// TryPublish is the non-blocking form of Publish. It returns false when the
// scene is invalid or could not be delivered to every copy yet; a later
// Publish or TryPublish completes the delivery.
func (r *Renderer) TryPublish(scene Scene) bool {
	if r.checkScene(&scene) != nil {
		return false
	}
	return r.scene.TryPublish(scene)
}

// Render mixes one host block. inputs[id] is the mono input of source id and
// must hold at least len(left) samples; nil or missing inputs are silent.
// The mix is added to left and right. Render returns false and leaves the
// output untouched when the scene could not be acquired without blocking.
func (r *Renderer) Render(inputs [][]float64, left, right []float64) bool {
	lease := r.scene.Acquire()
	if lease == nil {
		return false
	}
	defer lease.Release()

	r.current = lease.Value()
	r.bridge.Process(inputs, r.renderFn, left, right)
	r.current = nil
	return true
}

// renderInternal runs at the internal rate on the audio goroutine.
func (r *Renderer) renderInternal(inputs [][]float64, left, right []float64) {
	scene := r.current
	n := len(left)

	if c := scene.SpeedOfSound; c > 0 {
		c = mathutil.Clamp(c, r.cfg.MinSpeedOfSound, r.cfg.MaxSpeedOfSound)
		if c != r.speed {
			r.speed = c
			for _, v := range r.voices {
				v.SetSpeedOfSound(c)
			}
		}
	}

	clear(r.seen)
	ops := simdops.Float64Ops()
	out := [2][]float64{left, right}

	for i := range scene.Sources {
		src := &scene.Sources[i]
		id := src.ID
		if id < 0 || id >= len(r.voices) {
			continue
		}
		r.seen[id] = true

		v := r.voices[id]
		if !r.active[id] {
			v.Reset()
			r.active[id] = true
		}
		v.SetMuted(src.Muted)
		v.SetDopplerEnabled(!src.DisableDoppler)

		in := r.gained[id][:n]
		if id < len(inputs) && inputs[id] != nil {
			ops.Scale(in, inputs[id][:n], src.gain())
		} else {
			clear(in)
		}
		v.Render(src.Position, in, out)
	}

	for id, v := range r.voices {
		if r.active[id] && !r.seen[id] {
			v.Reset()
			r.active[id] = false
		}
	}
}

// ActiveSources returns the number of sources rendered by the last block.
func (r *Renderer) ActiveSources() int {
	n := 0
	for _, a := range r.active {
		if a {
			n++
		}
	}
	return n
}

// Reset clears every source and the rate converters. It must be called
// from the audio goroutine or while it is stopped.
func (r *Renderer) Reset() {
	for i, v := range r.voices {
		v.Reset()
		r.active[i] = false
	}
	r.bridge.Reset()
}
