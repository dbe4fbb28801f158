package hrir

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tphakala/go-binaural/internal/filter"
	"github.com/tphakala/go-binaural/internal/geom"
	"github.com/tphakala/go-binaural/internal/mathutil"
)

// nearFieldMaxGain caps the level boost of a source very close to one ear.
const nearFieldMaxGain = 4.0

// Synthesize builds a dataset from a rigid spherical head model. Each ear
// filter is a band-limited fractional delay placed at the Woodworth arrival
// time, scaled by a head-shadow gain and the near-field level difference
// between the ear and the head centre. The cutoff drops for sources below
// and behind the listener. The model is symmetric across the median plane.
func Synthesize(g Grid, headRadius, speedOfSound float64) (*Dataset, error) {
	if !(headRadius > 0) || !(speedOfSound > 0) {
		return nil, fmt.Errorf("head radius and speed of sound must be positive: %f, %f", headRadius, speedOfSound)
	}

	ds, err := NewDataset(g)
	if err != nil {
		return nil, err
	}

	latest := headRadius * (1 + mathutil.HalfPi) / speedOfSound * g.SampleRate
	if synthLeadIn+latest+synthTail > float64(g.Taps-1) {
		return nil, fmt.Errorf("filter length %d too short for a %.3f m head at %.0f Hz",
			g.Taps, headRadius, g.SampleRate)
	}

	m := headModel{grid: g, headRadius: headRadius, speedOfSound: speedOfSound}

	for d := range g.DistanceSteps {
		r := g.Distance(d)
		for a := range g.AzimuthSteps {
			for e := range g.ElevationSteps {
				pos := geom.Spherical{Radius: r, Azimuth: g.Azimuth(a), Elevation: g.Elevation(e)}
				for ch := range channels {
					taps, err := m.earFilter(pos, ch)
					if err != nil {
						return nil, fmt.Errorf("ring %d, azimuth %d, elevation %d: %w", d, a, e, err)
					}
					if err := ds.SetFilter(d, a, e, ch, taps); err != nil {
						return nil, err
					}
				}
			}
		}

		for p, el := range [poles]float64{0, math.Pi} {
			pos := geom.Spherical{Radius: r, Elevation: el}
			for ch := range channels {
				taps, err := m.earFilter(pos, ch)
				if err != nil {
					return nil, fmt.Errorf("ring %d, pole %d: %w", d, p, err)
				}
				if err := ds.SetPole(d, p, ch, taps); err != nil {
					return nil, err
				}
			}
		}
	}

	return ds, nil
}

type headModel struct {
	grid         Grid
	headRadius   float64
	speedOfSound float64
}

func (m *headModel) earFilter(pos geom.Spherical, ch int) ([]float64, error) {
	dir := r3.Unit(pos.XYZ())
	axis := r3.Unit(geom.Ear(ch, m.headRadius))
	cosTheta := mathutil.Clamp(r3.Dot(dir, axis), -1, 1)
	theta := math.Acos(cosTheta)

	// Woodworth: path difference relative to the head centre.
	var extra float64
	if theta <= mathutil.HalfPi {
		extra = -m.headRadius * cosTheta
	} else {
		extra = m.headRadius * (theta - mathutil.HalfPi)
	}
	delay := synthLeadIn + (extra+m.headRadius)/m.speedOfSound*m.grid.SampleRate

	shadow := synthShadowFloor + (1-synthShadowFloor)*synthShadowHalf*(1+cosTheta)

	earDistance := geom.EarDistance(pos, ch, m.headRadius)
	nearField := nearFieldMaxGain
	if earDistance > 0 {
		nearField = math.Min(pos.Radius/earDistance, nearFieldMaxGain)
	}

	below := pos.Elevation / math.Pi
	behind := synthShadowHalf * (1 - math.Cos(pos.Azimuth))
	cutoff := synthCutoff - synthElevationDarkening*below - synthRearDarkening*behind

	return filter.FractionalDelay(filter.DelayParams{
		NumTaps:     m.grid.Taps,
		Delay:       delay,
		Cutoff:      cutoff,
		Attenuation: synthAttenuation,
		Gain:        shadow * nearField,
	})
}
