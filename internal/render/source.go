// Package render turns one mono source into an accumulated binaural pair.
package render

import (
	"fmt"
	"math"

	"github.com/tphakala/go-binaural/internal/engine"
	"github.com/tphakala/go-binaural/internal/geom"
	"github.com/tphakala/go-binaural/internal/hrir"
	"github.com/tphakala/go-binaural/internal/mathutil"
)

// Interpolation selects how filter changes within a block are rendered.
type Interpolation int

const (
	// InterpolationRealtime crossfades between the previous and the new
	// filter pair over the block.
	InterpolationRealtime Interpolation = iota

	// InterpolationPath looks up filters along the straight line between
	// the previous and the new position and crossfades segment by segment.
	InterpolationPath
)

// State is the rendering state of a source.
type State int

const (
	// Stationary renders with the cached filter pair.
	Stationary State = iota

	// Transitioning blends from the previous to the new filter pair.
	Transitioning
)

func (s State) String() string {
	switch s {
	case Stationary:
		return "stationary"
	case Transitioning:
		return "transitioning"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Settings configures a SourceRenderer.
type Settings struct {
	SampleRate      float64
	SpeedOfSound    float64
	MinSpeedOfSound float64
	MinDistance     float64
	MaxDistance     float64
	HeadRadius      float64
	EnableDoppler   bool
	Interpolation   Interpolation
}

// kernel is a filter pair with reversed taps, ready for engine.Convolve.
type kernel struct {
	taps  [2][]float64
	scale [2]float64
}

func newKernel(taps int) *kernel {
	return &kernel{taps: [2][]float64{make([]float64, taps), make([]float64, taps)}}
}

func (k *kernel) load(p *hrir.FilterPair) {
	for ch := range k.taps {
		engine.Reverse(k.taps[ch], p.Taps[ch])
	}
	k.scale = p.Scale
}

// SourceRenderer holds the per-source state: position history, cached
// filters, input history and Doppler lines. It is owned by the realtime
// goroutine and not safe for concurrent use.
type SourceRenderer struct {
	field    *hrir.Field
	settings Settings

	maxBlock int
	history  *engine.History
	lookup   *hrir.FilterPair

	current  *kernel
	previous *kernel
	spare    *kernel

	position      geom.Spherical
	lastPosition  geom.Spherical
	priorPosition geom.Spherical

	primary   [2][]float64
	secondary [2][]float64
	doppler   [2]*engine.DopplerLine

	state       State
	initialized bool
	muted       bool
	dopplerOff  bool
}

// New creates a renderer. AllocateForMaxBufferSize must be called before
// the first Render.
func New(field *hrir.Field, settings Settings) *SourceRenderer {
	return &SourceRenderer{
		field:    field,
		settings: settings,
	}
}

// AllocateForMaxBufferSize sizes every buffer for blocks of up to
// maxBlockSize samples. It allocates and must not run on the realtime
// goroutine. Existing state is discarded.
func (s *SourceRenderer) AllocateForMaxBufferSize(maxBlockSize int) error {
	if maxBlockSize < 1 {
		return fmt.Errorf("max block size must be positive: %d", maxBlockSize)
	}
	if s.field == nil {
		return fmt.Errorf("no HRIR field")
	}

	taps := s.field.Taps()
	s.maxBlock = maxBlockSize
	s.history = engine.NewHistory(taps, maxBlockSize)
	s.lookup = hrir.NewFilterPair(taps)
	s.current, s.previous, s.spare = newKernel(taps), newKernel(taps), newKernel(taps)
	for ch := range 2 {
		s.primary[ch] = make([]float64, maxBlockSize)
		s.secondary[ch] = make([]float64, maxBlockSize)
	}

	if s.settings.EnableDoppler {
		maxDistance := s.settings.MaxDistance + s.settings.HeadRadius
		for ch := range s.doppler {
			line := engine.NewDopplerLine(s.settings.SampleRate, s.settings.SpeedOfSound)
			if err := line.Allocate(maxDistance, maxBlockSize, s.settings.MinSpeedOfSound); err != nil {
				return fmt.Errorf("doppler line: %w", err)
			}
			s.doppler[ch] = line
		}
	}

	s.Reset()
	return nil
}

// Allocated reports whether the renderer is ready to render.
func (s *SourceRenderer) Allocated() bool {
	return s.history != nil
}

// MaxBlockSize returns the allocated block size.
func (s *SourceRenderer) MaxBlockSize() int {
	return s.maxBlock
}

// Reset forgets the position, input history and pending Doppler samples.
func (s *SourceRenderer) Reset() {
	if s.history != nil {
		s.history.Reset()
	}
	for _, line := range s.doppler {
		if line != nil {
			line.Reset()
		}
	}
	s.state = Stationary
	s.initialized = false
}

// SetMuted mutes or unmutes the source. A muted source keeps recording its
// input so unmuting resumes without a transient, but its Doppler lines are
// cleared and no output is produced.
func (s *SourceRenderer) SetMuted(muted bool) {
	if muted && !s.muted {
		s.resetDoppler()
	}
	s.muted = muted
}

// Muted reports whether the source is muted.
func (s *SourceRenderer) Muted() bool {
	return s.muted
}

// SetDopplerEnabled turns the Doppler delay on or off for this source. It
// has no effect unless the renderer was allocated with Doppler enabled.
// Disabling clears the lines so re-enabling starts from the current distance.
func (s *SourceRenderer) SetDopplerEnabled(enabled bool) {
	if !enabled && !s.dopplerOff {
		s.resetDoppler()
	}
	s.dopplerOff = !enabled
}

// SetSpeedOfSound updates the Doppler propagation speed.
func (s *SourceRenderer) SetSpeedOfSound(c float64) {
	for _, line := range s.doppler {
		if line != nil {
			line.SetSpeedOfSound(c)
		}
	}
}

// State returns the state the most recent Render used.
func (s *SourceRenderer) State() State {
	return s.state
}

// Position returns the most recent normalized position.
func (s *SourceRenderer) Position() geom.Spherical {
	return s.position
}

func (s *SourceRenderer) resetDoppler() {
	for _, line := range s.doppler {
		if line != nil {
			line.Reset()
		}
	}
}

// Render convolves in with the filter pair for pos and adds the result to
// out[0] (left) and out[1] (right). Exactly len(in) samples are added; blocks
// longer than the allocated size are split. Non-finite samples are dropped.
func (s *SourceRenderer) Render(pos geom.Spherical, in []float64, out [2][]float64) {
	if s.history == nil {
		return
	}
	for len(in) > s.maxBlock {
		s.render(pos, in[:s.maxBlock], [2][]float64{out[0][:s.maxBlock], out[1][:s.maxBlock]})
		in = in[s.maxBlock:]
		out = [2][]float64{out[0][s.maxBlock:], out[1][s.maxBlock:]}
	}
	if len(in) > 0 {
		s.render(pos, in, out)
	}
}

func (s *SourceRenderer) render(pos geom.Spherical, in []float64, out [2][]float64) {
	n := len(in)
	pos = pos.Normalize(s.settings.MinDistance, s.settings.MaxDistance)

	s.history.Push(in)

	if s.muted {
		// Resume from the latest position without a crossfade.
		s.initialized = false
		s.position = pos
		s.state = Stationary
		return
	}

	s.state = Stationary
	switch {
	case !s.initialized:
		s.position = pos
		s.lastPosition, s.priorPosition = pos, pos
		s.field.Lookup(s.lookup, pos.Radius, pos.Azimuth, pos.Elevation)
		s.current.load(s.lookup)
		s.initialized = true
	case pos != s.position:
		s.state = Transitioning
		s.priorPosition = s.lastPosition
		s.lastPosition = s.position
		s.position = pos
		s.current, s.previous = s.previous, s.current
	}

	window := s.history.Window(n)
	switch {
	case s.state == Stationary:
		s.convolve(s.primary, window, s.current, 0, n)
	case s.settings.Interpolation == InterpolationPath:
		s.renderPath(window, n)
	default:
		s.field.Lookup(s.lookup, pos.Radius, pos.Azimuth, pos.Elevation)
		s.current.load(s.lookup)
		s.convolve(s.primary, window, s.previous, 0, n)
		s.convolve(s.secondary, window, s.current, 0, n)
		crossfade(s.primary, s.secondary, 0, n)
	}

	s.applyDoppler(pos, n)

	for ch := range out {
		dst := out[ch][:n]
		for j, v := range s.primary[ch][:n] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			dst[j] += v
		}
	}
}

// renderPath crossfades through filters looked up along the straight line
// from the previous to the current position. On return s.current holds the
// pair for the current position.
func (s *SourceRenderer) renderPath(window []float64, n int) {
	segments := max(n/pathSamplesPerLookup, minPathSegments)
	from := s.lastPosition
	to := s.position

	start := s.previous
	end := s.current
	for k := 1; k <= segments; k++ {
		target := to
		if k < segments {
			target = geom.Lerp(from, to, float64(k)/float64(segments))
		}
		s.field.Lookup(s.lookup, target.Radius, target.Azimuth, target.Elevation)
		end.load(s.lookup)

		lo := (k - 1) * n / segments
		hi := k * n / segments
		s.convolve(s.primary, window, start, lo, hi)
		s.convolve(s.secondary, window, end, lo, hi)
		crossfade(s.primary, s.secondary, lo, hi)

		if k < segments {
			// The segment end becomes the next segment start.
			if start == s.previous {
				start, end = end, s.spare
			} else {
				start, end = end, start
			}
		}
	}

	// Keep the three kernels distinct with the final pair in s.current.
	switch end {
	case s.current:
	case s.previous:
		s.current, s.previous = s.previous, s.current
	case s.spare:
		s.current, s.spare = s.spare, s.current
	}
}

func (s *SourceRenderer) convolve(dst [2][]float64, window []float64, k *kernel, from, to int) {
	for ch := range dst {
		engine.Convolve(dst[ch], window, k.taps[ch], from, to, k.scale[ch])
	}
}

// crossfade blends a into b over [from, to), writing to a. The weight of b
// reaches 1 on the last sample.
func crossfade(a, b [2][]float64, from, to int) {
	span := float64(to - from)
	for ch := range a {
		for j := from; j < to; j++ {
			w := float64(j-from+1) / span
			a[ch][j] = mathutil.Lerp(a[ch][j], b[ch][j], w)
		}
	}
}

func (s *SourceRenderer) applyDoppler(pos geom.Spherical, n int) {
	if !s.settings.EnableDoppler || s.dopplerOff {
		return
	}
	for ch, line := range s.doppler {
		if line == nil {
			continue
		}
		distance := geom.EarDistance(pos, ch, s.settings.HeadRadius)
		if distance > line.MaxDistance() {
			// Growing allocates; it only happens when a source exceeds the
			// configured range.
			if err := line.Grow(distance); err != nil {
				continue
			}
		}
		line.Process(distance, s.primary[ch][:n], s.primary[ch][:n])
	}
}
