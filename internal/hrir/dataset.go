// Package hrir holds head-related impulse response sets and interpolates
// filter pairs for arbitrary source positions.
//
// A Dataset stores one hemisphere (azimuth 0..π, the right side) of a
// distance × azimuth × elevation grid plus the two poles of every distance
// ring. The left hemisphere is obtained by mirroring with the channels
// swapped, which assumes a head that is symmetric across the median plane.
package hrir

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Grid describes the sampling of a Dataset.
//
// Azimuth sample i lies at i·π/(AzimuthSteps−1); elevation row j lies at
// (j+1)·π/(ElevationSteps+1), so the poles at 0 and π are not rows and are
// stored separately. Distance rings are spaced logarithmically over
// [DistanceBegin, DistanceEnd].
type Grid struct {
	DistanceSteps  int
	AzimuthSteps   int
	ElevationSteps int
	Taps           int

	DistanceBegin float64
	DistanceEnd   float64
	SampleRate    float64
}

// Validate checks the grid dimensions.
func (g *Grid) Validate() error {
	if g.DistanceSteps < minDistanceSteps {
		return fmt.Errorf("distance steps must be at least %d: %d", minDistanceSteps, g.DistanceSteps)
	}
	if g.AzimuthSteps < minAzimuthSteps {
		return fmt.Errorf("azimuth steps must be at least %d: %d", minAzimuthSteps, g.AzimuthSteps)
	}
	if g.ElevationSteps < minElevationSteps {
		return fmt.Errorf("elevation steps must be at least %d: %d", minElevationSteps, g.ElevationSteps)
	}
	if g.Taps < minTaps || g.Taps > maxTaps {
		return fmt.Errorf("filter length %d out of range [%d, %d]", g.Taps, minTaps, maxTaps)
	}
	if !(g.DistanceBegin > 0) || math.IsInf(g.DistanceEnd, 0) || g.DistanceEnd < g.DistanceBegin {
		return fmt.Errorf("invalid distance range [%f, %f]", g.DistanceBegin, g.DistanceEnd)
	}
	if g.DistanceSteps > 1 && g.DistanceEnd == g.DistanceBegin {
		return fmt.Errorf("%d distance rings need a non-empty range", g.DistanceSteps)
	}
	if !(g.SampleRate > 0) {
		return fmt.Errorf("sample rate must be positive: %f", g.SampleRate)
	}
	return nil
}

// Distance returns the radius of ring i.
func (g *Grid) Distance(i int) float64 {
	if g.DistanceSteps == 1 {
		return g.DistanceBegin
	}
	return g.DistanceBegin * math.Exp(float64(i)*g.logStep())
}

func (g *Grid) logStep() float64 {
	return math.Log(g.DistanceEnd/g.DistanceBegin) / float64(g.DistanceSteps-1)
}

// AzimuthStep returns the spacing between azimuth samples.
func (g *Grid) AzimuthStep() float64 {
	return math.Pi / float64(g.AzimuthSteps-1)
}

// ElevationStep returns the spacing between elevation rows.
func (g *Grid) ElevationStep() float64 {
	return math.Pi / float64(g.ElevationSteps+1)
}

// Azimuth returns the angle of azimuth sample i.
func (g *Grid) Azimuth(i int) float64 {
	return float64(i) * g.AzimuthStep()
}

// Elevation returns the angle of elevation row j.
func (g *Grid) Elevation(j int) float64 {
	return float64(j+1) * g.ElevationStep()
}

// Dataset owns the filter coefficients of a Grid in one flat buffer laid out
// as [distance][azimuth][elevation][channel][tap], with the poles in a second
// buffer laid out as [distance][pole][channel][tap].
type Dataset struct {
	grid Grid

	data  []float64
	poles []float64

	distanceStride  int
	azimuthStride   int
	elevationStride int
	poleStride      int
}

// NewDataset allocates a zeroed dataset for the grid.
func NewDataset(g Grid) (*Dataset, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	elevationStride := channels * g.Taps
	azimuthStride := g.ElevationSteps * elevationStride
	distanceStride := g.AzimuthSteps * azimuthStride

	return &Dataset{
		grid:            g,
		data:            make([]float64, g.DistanceSteps*distanceStride),
		poles:           make([]float64, g.DistanceSteps*poles*elevationStride),
		distanceStride:  distanceStride,
		azimuthStride:   azimuthStride,
		elevationStride: elevationStride,
		poleStride:      poles * elevationStride,
	}, nil
}

// Grid returns the dataset's sampling.
func (ds *Dataset) Grid() Grid {
	return ds.grid
}

// Filter returns the taps for the given grid point and channel. The slice
// aliases the dataset.
func (ds *Dataset) Filter(d, a, e, ch int) []float64 {
	off := d*ds.distanceStride + a*ds.azimuthStride + e*ds.elevationStride + ch*ds.grid.Taps
	return ds.data[off : off+ds.grid.Taps : off+ds.grid.Taps]
}

// Pole returns the taps of pole p (0 above, 1 below) of ring d.
func (ds *Dataset) Pole(d, p, ch int) []float64 {
	off := d*ds.poleStride + p*ds.elevationStride + ch*ds.grid.Taps
	return ds.poles[off : off+ds.grid.Taps : off+ds.grid.Taps]
}

// SetFilter copies taps into the given grid point.
func (ds *Dataset) SetFilter(d, a, e, ch int, taps []float64) error {
	if err := ds.checkIndex(d, ch, len(taps)); err != nil {
		return err
	}
	if a < 0 || a >= ds.grid.AzimuthSteps || e < 0 || e >= ds.grid.ElevationSteps {
		return fmt.Errorf("grid point (%d, %d) out of range", a, e)
	}
	copy(ds.Filter(d, a, e, ch), taps)
	return nil
}

// SetPole copies taps into pole p of ring d.
func (ds *Dataset) SetPole(d, p, ch int, taps []float64) error {
	if err := ds.checkIndex(d, ch, len(taps)); err != nil {
		return err
	}
	if p != poleAbove && p != poleBelow {
		return fmt.Errorf("pole index %d out of range", p)
	}
	copy(ds.Pole(d, p, ch), taps)
	return nil
}

func (ds *Dataset) checkIndex(d, ch, n int) error {
	if d < 0 || d >= ds.grid.DistanceSteps {
		return fmt.Errorf("distance ring %d out of range", d)
	}
	if ch < 0 || ch >= channels {
		return fmt.Errorf("channel %d out of range", ch)
	}
	if n != ds.grid.Taps {
		return fmt.Errorf("filter has %d taps, dataset expects %d", n, ds.grid.Taps)
	}
	return nil
}

// Validate reports non-finite coefficients.
func (ds *Dataset) Validate() error {
	if err := checkFinite("grid", ds.data); err != nil {
		return err
	}
	return checkFinite("pole", ds.poles)
}

func checkFinite(name string, buf []float64) error {
	if floats.HasNaN(buf) {
		return fmt.Errorf("%s filters contain NaN", name)
	}
	for i, v := range buf {
		if math.IsInf(v, 0) {
			return fmt.Errorf("%s filter coefficient %d is infinite", name, i)
		}
	}
	return nil
}
