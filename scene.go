package binaural

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tphakala/go-binaural/internal/geom"
)

// Spherical is a listener-relative position: radius in meters, azimuth
// (0 ahead, π/2 right) and elevation (0 above, π/2 level, π below) in
// radians.
type Spherical = geom.Spherical

// PositionFromXYZ converts cartesian coordinates (x right, y ahead, z up) to
// a Spherical position.
func PositionFromXYZ(x, y, z float64) Spherical {
	return geom.FromXYZ(r3.Vec{X: x, Y: y, Z: z})
}

// Source is the published state of one sound source.
type Source struct {
	// ID selects the source slot and the input slice passed to Render.
	ID int

	Position Spherical

	// Gain scales the source input. Zero is treated as unity so a literal
	// Source{ID: 1} plays at full level; use Muted to silence a source.
	Gain float64

	// Muted sources keep their history but produce no output.
	Muted bool

	// DisableDoppler bypasses the propagation delay for this source.
	DisableDoppler bool
}

func (s *Source) gain() float64 {
	if s.Gain == 0 {
		return 1
	}
	return s.Gain
}

// Scene is the set of sources rendered by the next blocks.
type Scene struct {
	Sources []Source

	// SpeedOfSound overrides the configured speed when positive.
	SpeedOfSound float64
}

// copyScene copies src into dst reusing dst's storage.
func copyScene(dst, src *Scene) {
	dst.Sources = append(dst.Sources[:0], src.Sources...)
	dst.SpeedOfSound = src.SpeedOfSound
}
