package main

import (
	"fmt"
	"math"
	"strings"

	binaural "github.com/tphakala/go-binaural"
)

// pathParams holds the trajectory flags.
type pathParams struct {
	radius     float64
	azimuth    float64 // radians
	elevation  float64 // radians
	period     float64 // seconds per orbit
	speed      float64 // m/s
	halfLength float64 // meters
}

// parsePath maps a trajectory name to a source path.
func parsePath(name string, p pathParams) (binaural.Path, error) {
	if !(p.radius > 0) {
		return nil, fmt.Errorf("radius must be positive, got %v", p.radius)
	}

	switch strings.ToLower(name) {
	case "static":
		pos := binaural.Spherical{Radius: p.radius, Azimuth: p.azimuth, Elevation: p.elevation}
		return func(float64) binaural.Spherical { return pos }, nil

	case "orbit":
		if p.period == 0 {
			return nil, fmt.Errorf("orbit period must be non-zero")
		}
		omega := 2 * math.Pi / p.period
		return func(t float64) binaural.Spherical {
			return binaural.Spherical{Radius: p.radius, Azimuth: p.azimuth + omega*t, Elevation: p.elevation}
		}, nil

	case "flyby":
		if !(p.speed > 0) {
			return nil, fmt.Errorf("fly-by speed must be positive, got %v", p.speed)
		}
		// Passes left to right in front of the listener at the given radius.
		return func(t float64) binaural.Spherical {
			return binaural.PositionFromXYZ(-p.halfLength+p.speed*t, p.radius, 0)
		}, nil

	default:
		return nil, fmt.Errorf("unknown path %q (want static, orbit or flyby)", name)
	}
}
