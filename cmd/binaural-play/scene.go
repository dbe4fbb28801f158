package main

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	binaural "github.com/tphakala/go-binaural"
)

// choreography moves the voices on staggered orbits around the listener.
type choreography struct {
	voices int
	radius float64
	period float64
}

// sceneAt fills dst with the source positions t seconds after start.
func (c *choreography) sceneAt(t float64, dst *binaural.Scene) {
	dst.Sources = dst.Sources[:0]
	omega := 2 * math.Pi / c.period
	for i := range c.voices {
		phase := 2 * math.Pi * float64(i) / float64(c.voices)
		wobble := math.Sin(wobbleRatio*omega*t + phase)
		dst.Sources = append(dst.Sources, binaural.Source{
			ID: i,
			Position: binaural.Spherical{
				Radius:    c.radius * (1 + radiusWobble*wobble),
				Azimuth:   omega*t + phase,
				Elevation: math.Pi/2 + elevationWobble*wobble,
			},
		})
	}
}

// automate publishes a new scene every tick until ctx is done. Scenes that
// cannot be delivered without blocking are retried on the next tick.
func automate(ctx context.Context, r *binaural.Renderer, c *choreography, tick time.Duration, speedOfSound float64, missed *atomic.Int64) error {
	scene := binaural.Scene{Sources: make([]binaural.Source, 0, c.voices), SpeedOfSound: speedOfSound}
	start := time.Now()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		c.sceneAt(time.Since(start).Seconds(), &scene)
		if !r.TryPublish(scene) {
			missed.Add(1)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
