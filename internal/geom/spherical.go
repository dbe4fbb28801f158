// Package geom holds the listener-relative coordinate system shared by the
// HRIR field and the renderer.
//
// The listener sits at the origin facing +y with +x to the right and +z up.
// Spherical positions use radius, azimuth and elevation (RAE):
//
//   - azimuth 0 is straight ahead, π/2 is the right ear, wrapping in [0, 2π)
//   - elevation 0 is directly above, π/2 the horizontal plane, π directly below
package geom

import (
	"math"

	"github.com/tphakala/go-binaural/internal/mathutil"
	"gonum.org/v1/gonum/spatial/r3"
)

// Channel indices of a stereo pair.
const (
	Left  = 0
	Right = 1
)

// Spherical is a listener-relative source position.
type Spherical struct {
	Radius    float64
	Azimuth   float64
	Elevation float64
}

// Front returns a position straight ahead on the horizontal plane.
func Front(radius float64) Spherical {
	return Spherical{Radius: radius, Azimuth: 0, Elevation: mathutil.HalfPi}
}

// Normalize returns s with the radius clamped to [minRadius, maxRadius], the
// elevation folded into [0, π] and the azimuth wrapped into [0, 2π). Folding
// the elevation across a pole turns the azimuth by π.
func (s Spherical) Normalize(minRadius, maxRadius float64) Spherical {
	out := Spherical{
		Radius:    mathutil.Clamp(s.Radius, minRadius, maxRadius),
		Azimuth:   s.Azimuth,
		Elevation: s.Elevation,
	}

	if math.IsNaN(out.Elevation) || math.IsInf(out.Elevation, 0) {
		out.Elevation = mathutil.HalfPi
	}

	e := mathutil.WrapAngle(out.Elevation)
	if e > math.Pi {
		e = mathutil.TwoPi - e
		out.Azimuth += math.Pi
	}
	out.Elevation = e
	out.Azimuth = mathutil.WrapAngle(out.Azimuth)

	return out
}

// XYZ converts s to cartesian coordinates.
func (s Spherical) XYZ() r3.Vec {
	sinE, cosE := math.Sincos(s.Elevation)
	sinA, cosA := math.Sincos(s.Azimuth)
	return r3.Vec{
		X: s.Radius * sinE * sinA,
		Y: s.Radius * sinE * cosA,
		Z: s.Radius * cosE,
	}
}

// FromXYZ converts a cartesian position to spherical coordinates. The origin
// maps to a zero-radius position on the horizontal plane straight ahead.
func FromXYZ(v r3.Vec) Spherical {
	r := r3.Norm(v)
	if r == 0 || math.IsNaN(r) {
		return Spherical{Elevation: mathutil.HalfPi}
	}

	elevation := math.Acos(mathutil.Clamp(v.Z/r, -1, 1))
	azimuth := 0.0
	if v.X != 0 || v.Y != 0 {
		azimuth = mathutil.WrapAngle(math.Atan2(v.X, v.Y))
	}

	return Spherical{Radius: r, Azimuth: azimuth, Elevation: elevation}
}

// Lerp returns the point at fraction t on the straight line from a to b.
func Lerp(a, b Spherical, t float64) Spherical {
	pa, pb := a.XYZ(), b.XYZ()
	return FromXYZ(r3.Add(pa, r3.Scale(t, r3.Sub(pb, pa))))
}

// Ear returns the position of the given ear for a head of the given radius.
func Ear(channel int, headRadius float64) r3.Vec {
	if channel == Left {
		return r3.Vec{X: -headRadius}
	}
	return r3.Vec{X: headRadius}
}

// EarDistance returns the Euclidean distance from the given ear to s.
func EarDistance(s Spherical, channel int, headRadius float64) float64 {
	return r3.Norm(r3.Sub(s.XYZ(), Ear(channel, headRadius)))
}
