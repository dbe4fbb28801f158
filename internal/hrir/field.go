package hrir

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/tphakala/go-binaural/internal/mathutil"
)

// FilterPair is an interpolated left/right filter. Taps are normalized to
// unit L1 norm per channel and Scale holds the factor that restores the
// interpolated level, distance attenuation included.
type FilterPair struct {
	Taps  [channels][]float64
	Scale [channels]float64
}

// NewFilterPair allocates a pair for filters of the given length.
func NewFilterPair(taps int) *FilterPair {
	return &FilterPair{
		Taps: [channels][]float64{make([]float64, taps), make([]float64, taps)},
	}
}

// Field interpolates filter pairs from a Dataset. It is immutable after
// construction and safe for concurrent use.
type Field struct {
	ds   *Dataset
	grid Grid

	logBegin float64
	logStep  float64
	azStep   float64
	elStep   float64
}

// NewField wraps a validated dataset.
func NewField(ds *Dataset) (*Field, error) {
	if ds == nil {
		return nil, fmt.Errorf("dataset is nil")
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	g := ds.Grid()
	f := &Field{
		ds:       ds,
		grid:     g,
		logBegin: math.Log(g.DistanceBegin),
		azStep:   g.AzimuthStep(),
		elStep:   g.ElevationStep(),
	}
	if g.DistanceSteps > 1 {
		f.logStep = g.logStep()
	}
	return f, nil
}

// Taps returns the filter length.
func (f *Field) Taps() int {
	return f.grid.Taps
}

// Grid returns the sampling of the underlying dataset.
func (f *Field) Grid() Grid {
	return f.grid
}

// Dataset returns the underlying dataset.
func (f *Field) Dataset() *Dataset {
	return f.ds
}

// cell is the position of a query within the grid of one hemisphere.
type cell struct {
	swap bool // azimuth was reflected from the left hemisphere

	az     int // lower azimuth sample, in [0, A-2]
	azFrac float64
	azNear int // azimuth sample nearest to the query

	el     int // lower elevation row, in [-1, E]; -1 and E are the poles
	elFrac float64
}

// Lookup writes the interpolated filter pair for a source at the given
// distance, azimuth and elevation into dst. It does not allocate.
//
// Distance is clamped to the dataset range, azimuth is wrapped and the left
// hemisphere is served by mirroring the right one. Within each of the two
// bracketing distance rings the filter is estimated twice with three-point
// Lagrange interpolation, once along azimuth and once along elevation, and
// the two estimates are averaged. The rings are blended by radial position
// and attenuated by 1/√distance before each channel is normalized.
func (f *Field) Lookup(dst *FilterPair, distance, azimuth, elevation float64) {
	for ch := range channels {
		clear(dst.Taps[ch])
	}

	distance = mathutil.Clamp(distance, f.grid.DistanceBegin, f.grid.DistanceEnd)
	c := f.locate(azimuth, elevation)

	inner, outer, radial := f.rings(distance)
	gain := 1 / math.Sqrt(distance)

	f.accumulateShell(dst, inner, &c, (1-radial)*gain)
	if outer != inner {
		f.accumulateShell(dst, outer, &c, radial*gain)
	}

	for ch := range channels {
		dst.Scale[ch] = normalize(dst.Taps[ch])
	}
}

func (f *Field) rings(distance float64) (inner, outer int, radial float64) {
	if f.grid.DistanceSteps == 1 {
		return 0, 0, 0
	}

	pos := (math.Log(distance) - f.logBegin) / f.logStep
	inner = int(mathutil.Clamp(math.Floor(pos), 0, float64(f.grid.DistanceSteps-2)))
	outer = inner + 1

	ri, ro := f.grid.Distance(inner), f.grid.Distance(outer)
	radial = mathutil.Clamp((distance-ri)/(ro-ri), 0, 1)
	return inner, outer, radial
}

func (f *Field) locate(azimuth, elevation float64) cell {
	var c cell

	az := mathutil.WrapAngle(azimuth)
	if az > math.Pi {
		az = mathutil.TwoPi - az
		c.swap = true
	}

	azPos := az / f.azStep
	lastAz := f.grid.AzimuthSteps - 1
	c.az = int(mathutil.Clamp(math.Floor(azPos), 0, float64(lastAz-1)))
	c.azFrac = mathutil.Clamp(azPos-float64(c.az), 0, 1)
	c.azNear = c.az
	if c.azFrac >= estimateWeight {
		c.azNear++
	}

	el := mathutil.Clamp(elevation, 0, math.Pi)
	rows := f.grid.ElevationSteps
	if el == math.Pi {
		c.el, c.elFrac = rows, 0
		return c
	}
	elPos := el/f.elStep - 1
	c.el = int(mathutil.Clamp(math.Floor(elPos), -1, float64(rows)))
	c.elFrac = mathutil.Clamp(elPos-float64(c.el), 0, 1)
	if c.el == rows {
		c.elFrac = 0
	}
	return c
}

// accumulateShell adds weight × (azimuth estimate + elevation estimate) / 2
// of ring d into dst.
func (f *Field) accumulateShell(dst *FilterPair, d int, c *cell, weight float64) {
	if weight == 0 {
		return
	}
	half := weight * estimateWeight

	// Azimuth direction: interpolate each bracketing row, then blend rows.
	rowWeights := [2]float64{1 - c.elFrac, c.elFrac}
	azStencil := mathutil.NearStencil(c.az, c.azFrac)
	for k, rw := range rowWeights {
		if rw == 0 {
			continue
		}
		row := c.el + k
		if f.isPole(row) {
			f.addPole(dst, d, row, half*rw)
			continue
		}
		for i, w := range azStencil.Weights {
			if w == 0 {
				continue
			}
			f.addPoint(dst, d, azStencil.Index+i, row, c.swap, half*rw*w)
		}
	}

	// Elevation direction at the nearest azimuth column.
	elStencil := mathutil.NearStencil(c.el, c.elFrac)
	for i, w := range elStencil.Weights {
		if w == 0 {
			continue
		}
		row := elStencil.Index + i
		if f.isPole(row) {
			f.addPole(dst, d, row, half*w)
			continue
		}
		f.addPoint(dst, d, c.azNear, row, c.swap, half*w)
	}
}

func (f *Field) isPole(row int) bool {
	return row < 0 || row >= f.grid.ElevationSteps
}

// addPole adds the pole filter of ring d. Poles are stored for both ears and
// are never mirrored, so they do not depend on the azimuth.
func (f *Field) addPole(dst *FilterPair, d, row int, w float64) {
	p := poleAbove
	if row >= f.grid.ElevationSteps {
		p = poleBelow
	}
	for ch := range channels {
		floats.AddScaled(dst.Taps[ch], w, f.ds.Pole(d, p, ch))
	}
}

// addPoint adds azimuth sample a of the given row. Samples beyond either end
// of the stored hemisphere are reflected back into it with the channels
// swapped.
func (f *Field) addPoint(dst *FilterPair, d, a, row int, swap bool, w float64) {
	last := f.grid.AzimuthSteps - 1
	switch {
	case a < 0:
		a = -a
		swap = !swap
	case a > last:
		a = 2*last - a
		swap = !swap
	}
	for ch := range channels {
		floats.AddScaled(dst.Taps[ch], w, f.ds.Filter(d, a, row, sourceChannel(ch, swap)))
	}
}

func sourceChannel(ch int, swap bool) int {
	if swap {
		return channels - 1 - ch
	}
	return ch
}

// normalize zeroes non-finite taps, scales h to unit L1 norm and returns the
// original norm.
func normalize(h []float64) float64 {
	for i, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			h[i] = 0
		}
	}
	norm := floats.Norm(h, 1)
	if norm == 0 {
		return 0
	}
	floats.Scale(1/norm, h)
	return norm
}
