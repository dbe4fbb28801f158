package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/tphakala/go-binaural/internal/geom"
	"github.com/tphakala/go-binaural/internal/hrir"
	"github.com/tphakala/go-binaural/internal/testutil"
)

const (
	testBlock = 128
	testRate  = 48000.0
)

var sharedField *hrir.Field

func testField(t testing.TB) *hrir.Field {
	t.Helper()
	if sharedField != nil {
		return sharedField
	}
	ds, err := hrir.Synthesize(hrir.Grid{
		DistanceSteps:  3,
		AzimuthSteps:   13,
		ElevationSteps: 7,
		Taps:           64,
		DistanceBegin:  0.2,
		DistanceEnd:    10,
		SampleRate:     testRate,
	}, 0.0875, 343)
	require.NoError(t, err)
	f, err := hrir.NewField(ds)
	require.NoError(t, err)
	sharedField = f
	return f
}

func testSettings() Settings {
	return Settings{
		SampleRate:      testRate,
		SpeedOfSound:    343,
		MinSpeedOfSound: 300,
		MinDistance:     0.2,
		MaxDistance:     10,
		HeadRadius:      0.0875,
	}
}

func newRenderer(t testing.TB, settings Settings) *SourceRenderer {
	t.Helper()
	s := New(testField(t), settings)
	require.NoError(t, s.AllocateForMaxBufferSize(testBlock))
	return s
}

// renderBlock renders one block into fresh output buffers.
func renderBlock(s *SourceRenderer, pos geom.Spherical, in []float64) [2][]float64 {
	out := [2][]float64{make([]float64, len(in)), make([]float64, len(in))}
	s.Render(pos, in, out)
	return out
}

func TestSourceRenderer_AllocateValidation(t *testing.T) {
	s := New(testField(t), testSettings())
	assert.Error(t, s.AllocateForMaxBufferSize(0))
	assert.False(t, s.Allocated())

	assert.Error(t, New(nil, testSettings()).AllocateForMaxBufferSize(64))

	bad := testSettings()
	bad.EnableDoppler = true
	bad.MinSpeedOfSound = 0
	assert.Error(t, New(testField(t), bad).AllocateForMaxBufferSize(64))
}

func TestSourceRenderer_UnallocatedIsSilent(t *testing.T) {
	s := New(testField(t), testSettings())
	out := renderBlock(s, geom.Front(1), testutil.Noise(32, 1))
	assert.Zero(t, testutil.AbsSum(out[0])+testutil.AbsSum(out[1]))
}

// TestSourceRenderer_StationaryDeterminism feeds a signal whose period equals
// the block size; once the history is primed every block must be identical.
func TestSourceRenderer_StationaryDeterminism(t *testing.T) {
	for _, doppler := range []bool{false, true} {
		settings := testSettings()
		settings.EnableDoppler = doppler
		s := newRenderer(t, settings)

		period := testutil.Noise(testBlock, 3)
		pos := geom.Spherical{Radius: 1.5, Azimuth: 1, Elevation: 1.2}

		var blocks [][2][]float64
		for range 6 {
			blocks = append(blocks, renderBlock(s, pos, period))
			assert.Equal(t, Stationary, s.State())
		}

		last := len(blocks) - 1
		assert.Equal(t, blocks[last-1], blocks[last], "doppler=%v", doppler)
		assert.Positive(t, testutil.AbsSum(blocks[last][0]))
	}
}

func TestSourceRenderer_SpatialBalance(t *testing.T) {
	s := newRenderer(t, testSettings())
	in := testutil.Noise(testBlock, 5)

	var out [2][]float64
	for range 3 {
		out = renderBlock(s, geom.Spherical{Radius: 1, Azimuth: math.Pi / 2, Elevation: math.Pi / 2}, in)
	}
	assert.Greater(t, floats.Norm(out[1], 2), floats.Norm(out[0], 2), "source on the right")

	s.Reset()
	for range 3 {
		out = renderBlock(s, geom.Spherical{Radius: 1, Azimuth: 3 * math.Pi / 2, Elevation: math.Pi / 2}, in)
	}
	assert.Greater(t, floats.Norm(out[0], 2), floats.Norm(out[1], 2), "source on the left")
}

func TestSourceRenderer_Transition(t *testing.T) {
	from := geom.Spherical{Radius: 1, Azimuth: 0.3, Elevation: 1.4}
	to := geom.Spherical{Radius: 2, Azimuth: 2.1, Elevation: 1.0}

	for _, mode := range []Interpolation{InterpolationRealtime, InterpolationPath} {
		settings := testSettings()
		settings.Interpolation = mode

		moving := newRenderer(t, settings)
		still := newRenderer(t, settings)
		period := testutil.Noise(testBlock, 7)

		for range 3 {
			renderBlock(moving, from, period)
			renderBlock(still, to, period)
		}

		transition := renderBlock(moving, to, period)
		assert.Equal(t, Transitioning, moving.State())
		target := renderBlock(still, to, period)

		for ch := range 2 {
			assert.InDelta(t, target[ch][testBlock-1], transition[ch][testBlock-1], 1e-12,
				"mode %d: transition ends on the new filter", mode)
		}
		testutil.AssertNoNaNOrInf(t, transition[0])

		// The next block is stationary at the new position.
		after := renderBlock(moving, to, period)
		assert.Equal(t, Stationary, moving.State())
		assert.Equal(t, renderBlock(still, to, period), after)
	}
}

func TestSourceRenderer_TransitionIsSmooth(t *testing.T) {
	settings := testSettings()
	settings.Interpolation = InterpolationPath
	s := newRenderer(t, settings)

	dc := make([]float64, testBlock)
	for i := range dc {
		dc[i] = 1
	}

	var left []float64
	for b := range 8 {
		az := 0.2 * float64(b)
		out := renderBlock(s, geom.Spherical{Radius: 1, Azimuth: az, Elevation: math.Pi / 2}, dc)
		left = append(left, out[0]...)
	}

	// After the filter ramps in, a constant input yields a slowly varying
	// output: no sample-to-sample jump at block boundaries.
	for j := 2 * testBlock; j < len(left); j++ {
		assert.Less(t, math.Abs(left[j]-left[j-1]), 0.05, "sample %d", j)
	}
}

func TestSourceRenderer_MuteKeepsHistory(t *testing.T) {
	pos := geom.Spherical{Radius: 1, Azimuth: 0.7, Elevation: 1.3}
	muted := newRenderer(t, testSettings())
	live := newRenderer(t, testSettings())

	in := testutil.Noise(testBlock*4, 9)
	blocks := func(i int) []float64 { return in[i*testBlock : (i+1)*testBlock] }

	renderBlock(muted, pos, blocks(0))
	renderBlock(live, pos, blocks(0))

	muted.SetMuted(true)
	assert.True(t, muted.Muted())
	silent := renderBlock(muted, pos, blocks(1))
	assert.Zero(t, testutil.AbsSum(silent[0])+testutil.AbsSum(silent[1]))
	renderBlock(live, pos, blocks(1))

	muted.SetMuted(false)
	assert.Equal(t, renderBlock(live, pos, blocks(2)), renderBlock(muted, pos, blocks(2)))
}

func TestSourceRenderer_Accumulates(t *testing.T) {
	s := newRenderer(t, testSettings())
	ref := newRenderer(t, testSettings())
	in := testutil.Noise(testBlock, 11)
	pos := geom.Front(1)

	out := [2][]float64{make([]float64, testBlock), make([]float64, testBlock)}
	for ch := range out {
		for j := range out[ch] {
			out[ch][j] = 1
		}
	}
	s.Render(pos, in, out)
	want := renderBlock(ref, pos, in)

	for ch := range out {
		for j := range out[ch] {
			assert.InDelta(t, 1+want[ch][j], out[ch][j], 1e-12)
		}
	}
}

func TestSourceRenderer_NonFiniteInput(t *testing.T) {
	settings := testSettings()
	settings.EnableDoppler = true
	s := newRenderer(t, settings)

	in := testutil.Noise(testBlock, 13)
	in[10] = math.NaN()
	in[20] = math.Inf(1)

	for range 3 {
		out := renderBlock(s, geom.Spherical{Radius: math.NaN(), Azimuth: math.Inf(1), Elevation: 1}, in)
		testutil.AssertNoNaNOrInf(t, out[0])
		testutil.AssertNoNaNOrInf(t, out[1])
	}
}

func TestSourceRenderer_OversizedBlock(t *testing.T) {
	s := newRenderer(t, testSettings())
	ref := newRenderer(t, testSettings())
	in := testutil.Noise(testBlock*3, 15)
	pos := geom.Front(2)

	out := renderBlock(s, pos, in)

	want := [2][]float64{make([]float64, len(in)), make([]float64, len(in))}
	for b := range 3 {
		lo, hi := b*testBlock, (b+1)*testBlock
		ref.Render(pos, in[lo:hi], [2][]float64{want[0][lo:hi], want[1][lo:hi]})
	}
	assert.Equal(t, want, out)
}

func TestSourceRenderer_DopplerDelaysOutput(t *testing.T) {
	settings := testSettings()
	settings.EnableDoppler = true
	s := newRenderer(t, settings)

	impulse := make([]float64, testBlock)
	impulse[0] = 1
	silence := make([]float64, testBlock)

	// 2 m at 343 m/s is about 280 samples, beyond the first two blocks.
	pos := geom.Front(2)
	first := renderBlock(s, pos, impulse)
	second := renderBlock(s, pos, silence)
	assert.Zero(t, testutil.AbsSum(first[0])+testutil.AbsSum(second[0]))

	var later float64
	for range 3 {
		out := renderBlock(s, pos, silence)
		later += testutil.AbsSum(out[0]) + testutil.AbsSum(out[1])
	}
	assert.Positive(t, later)

	s.SetSpeedOfSound(1000)
	testutil.AssertNoNaNOrInf(t, renderBlock(s, pos, silence)[0])
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "stationary", Stationary.String())
	assert.Equal(t, "transitioning", Transitioning.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func BenchmarkSourceRenderer_Moving(b *testing.B) {
	settings := testSettings()
	settings.EnableDoppler = true
	settings.Interpolation = InterpolationPath
	s := newRenderer(b, settings)

	in := testutil.Noise(testBlock, 1)
	out := [2][]float64{make([]float64, testBlock), make([]float64, testBlock)}
	az := 0.0

	for b.Loop() {
		s.Render(geom.Spherical{Radius: 2, Azimuth: az, Elevation: 1.4}, in, out)
		az += 0.01
	}
}

func TestSourceRenderer_DopplerToggle(t *testing.T) {
	settings := testSettings()
	settings.EnableDoppler = true
	s := newRenderer(t, settings)
	plain := newRenderer(t, testSettings())

	s.SetDopplerEnabled(false)
	in := testutil.Noise(testBlock, 19)
	pos := geom.Front(3)
	for range 3 {
		assert.Equal(t, renderBlock(plain, pos, in), renderBlock(s, pos, in))
	}
}
