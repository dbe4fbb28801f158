package binaural

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-binaural/internal/testutil"
)

var cachedDataset *Dataset

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxBlockSize = 128
	cfg.MaxSources = 4
	cfg.MaxDistance = 20
	return cfg
}

func testGrid(cfg *Config) Grid {
	return Grid{
		DistanceSteps:  2,
		AzimuthSteps:   13,
		ElevationSteps: 7,
		Taps:           64,
		DistanceBegin:  cfg.MinDistance,
		DistanceEnd:    cfg.MaxDistance,
		SampleRate:     cfg.SampleRate,
	}
}

func testDataset(t testing.TB) *Dataset {
	t.Helper()
	if cachedDataset == nil {
		cfg := testConfig()
		ds, err := SynthesizeDataset(&cfg, testGrid(&cfg))
		require.NoError(t, err)
		cachedDataset = ds
	}
	return cachedDataset
}

func newTestRenderer(t testing.TB, cfg Config) *Renderer {
	t.Helper()
	r, err := New(&cfg, testDataset(t))
	require.NoError(t, err)
	return r
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"negative host rate", func(c *Config) { c.HostRate = -1 }},
		{"zero block", func(c *Config) { c.MaxBlockSize = 0 }},
		{"huge block", func(c *Config) { c.MaxBlockSize = maxBlockSize + 1 }},
		{"no sources", func(c *Config) { c.MaxSources = 0 }},
		{"zero min distance", func(c *Config) { c.MinDistance = 0 }},
		{"reversed distances", func(c *Config) { c.MaxDistance = c.MinDistance / 2 }},
		{"infinite distance", func(c *Config) { c.MaxDistance = math.Inf(1) }},
		{"zero min speed", func(c *Config) { c.MinSpeedOfSound = 0 }},
		{"speed outside range", func(c *Config) { c.SpeedOfSound = c.MaxSpeedOfSound * 2 }},
		{"head larger than min distance", func(c *Config) { c.HeadRadius = c.MinDistance }},
		{"unknown interpolation", func(c *Config) { c.Interpolation = Interpolation(5) }},
	}

	valid := DefaultConfig()
	require.NoError(t, valid.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, testDataset(t))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg := testConfig()
	_, err = New(&cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidDataset)

	cfg.SampleRate = RateCD
	_, err = New(&cfg, testDataset(t))
	assert.ErrorIs(t, err, ErrInvalidDataset, "dataset rate mismatch")
}

func TestSynthesizeDataset_Errors(t *testing.T) {
	cfg := testConfig()
	g := testGrid(&cfg)
	g.Taps = 8
	_, err := SynthesizeDataset(&cfg, g)
	assert.ErrorIs(t, err, ErrInvalidDataset)

	cfg.MaxSources = 0
	_, err = SynthesizeDataset(&cfg, testGrid(&cfg))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRenderer_PublishRejectsUnknownSources(t *testing.T) {
	r := newTestRenderer(t, testConfig())

	tests := []struct {
		name  string
		scene Scene
	}{
		{"negative id", Scene{Sources: []Source{{ID: -1}}}},
		{"id beyond slots", Scene{Sources: []Source{{ID: 4}}}},
		{"duplicate id", Scene{Sources: []Source{{ID: 1}, {ID: 1}}}},
		{"too many sources", Scene{Sources: make([]Source, 5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, r.Publish(tt.scene), ErrUnknownSource)
			assert.False(t, r.TryPublish(tt.scene))
		})
	}
}

func TestRenderer_EmptySceneIsSilent(t *testing.T) {
	r := newTestRenderer(t, testConfig())
	left := make([]float64, 128)
	right := make([]float64, 128)

	require.True(t, r.Render([][]float64{testutil.Noise(128, 1)}, left, right))
	assert.Zero(t, testutil.AbsSum(left)+testutil.AbsSum(right))
	assert.Zero(t, r.ActiveSources())
}

// TestRenderer_SkipsBlockWhenSceneBusy holds every copy of the scene so the
// audio side cannot acquire one.
func TestRenderer_SkipsBlockWhenSceneBusy(t *testing.T) {
	r := newTestRenderer(t, testConfig())
	require.NoError(t, r.Publish(Scene{Sources: []Source{{ID: 0, Position: Spherical{Radius: 1, Elevation: math.Pi / 2}}}}))

	var held []func()
	for range r.scene.Copies() {
		lease := r.scene.Acquire()
		require.NotNil(t, lease)
		held = append(held, lease.Release)
	}

	left := []float64{7, 7, 7}
	right := []float64{7, 7, 7}
	assert.False(t, r.Render([][]float64{{1, 1, 1}}, left, right))
	assert.Equal(t, []float64{7, 7, 7}, left)
	assert.Equal(t, []float64{7, 7, 7}, right)

	for _, release := range held {
		release()
	}
	assert.True(t, r.Render([][]float64{{1, 1, 1}}, left, right))
}

func TestRenderer_SourceLifecycle(t *testing.T) {
	r := newTestRenderer(t, testConfig())
	pos := Spherical{Radius: 2, Azimuth: 1, Elevation: 1.2}
	inputs := [][]float64{testutil.Noise(128, 1), testutil.Noise(128, 2), nil, nil}
	left := make([]float64, 128)
	right := make([]float64, 128)

	require.NoError(t, r.Publish(Scene{Sources: []Source{{ID: 0, Position: pos}, {ID: 1, Position: pos}}}))
	require.True(t, r.Render(inputs, left, right))
	assert.Equal(t, 2, r.ActiveSources())

	require.NoError(t, r.Publish(Scene{Sources: []Source{{ID: 1, Position: pos}}}))
	require.True(t, r.Render(inputs, left, right))
	assert.Equal(t, 1, r.ActiveSources())

	r.Reset()
	assert.Zero(t, r.ActiveSources())
}

// renderSteady renders blocks of in for a fixed scene and returns the last.
func renderSteady(t *testing.T, cfg Config, scene Scene, in []float64, blocks int) (left, right []float64) {
	t.Helper()
	r := newTestRenderer(t, cfg)
	require.NoError(t, r.Publish(scene))

	inputs := make([][]float64, cfg.MaxSources)
	inputs[0] = in
	for range blocks {
		left = make([]float64, len(in))
		right = make([]float64, len(in))
		require.True(t, r.Render(inputs, left, right))
	}
	return left, right
}

func TestRenderer_GainAndMute(t *testing.T) {
	cfg := testConfig()
	in := testutil.Noise(128, 3)
	pos := Spherical{Radius: 1.5, Azimuth: 0.4, Elevation: 1.5}

	unityL, unityR := renderSteady(t, cfg, Scene{Sources: []Source{{ID: 0, Position: pos}}}, in, 4)
	doubleL, doubleR := renderSteady(t, cfg, Scene{Sources: []Source{{ID: 0, Position: pos, Gain: 2}}}, in, 4)

	for j := range unityL {
		assert.InDelta(t, 2*unityL[j], doubleL[j], 1e-9)
		assert.InDelta(t, 2*unityR[j], doubleR[j], 1e-9)
	}
	assert.Positive(t, testutil.AbsSum(unityL))

	mutedL, mutedR := renderSteady(t, cfg, Scene{Sources: []Source{{ID: 0, Position: pos, Muted: true}}}, in, 4)
	assert.Zero(t, testutil.AbsSum(mutedL)+testutil.AbsSum(mutedR))
}

func TestRenderer_HostRateConversion(t *testing.T) {
	for _, hostRate := range []float64{RateCD, RateHiRes96, 32000} {
		cfg := testConfig()
		cfg.HostRate = hostRate
		r := newTestRenderer(t, cfg)
		assert.Positive(t, r.Latency())

		require.NoError(t, r.Publish(Scene{Sources: []Source{{ID: 0, Position: Spherical{Radius: 0.5, Azimuth: 1, Elevation: 1.4}}}}))

		in := testutil.Sine(128, 500, hostRate)
		var energy float64
		for _, n := range []int{128, 100, 1, 128, 77} {
			left := make([]float64, n)
			right := make([]float64, n)
			require.True(t, r.Render([][]float64{in[:n]}, left, right))
			testutil.AssertNoNaNOrInf(t, left)
			testutil.AssertNoNaNOrInf(t, right)
			energy += testutil.AbsSum(left) + testutil.AbsSum(right)
		}
		assert.Positive(t, energy, "host rate %v", hostRate)
	}
}

func TestRenderer_SpeedOfSoundChange(t *testing.T) {
	r := newTestRenderer(t, testConfig())
	in := testutil.Noise(128, 5)
	left := make([]float64, 128)
	right := make([]float64, 128)

	for i, c := range []float64{343, 100, 5000, 343} {
		scene := Scene{
			Sources:      []Source{{ID: 0, Position: Spherical{Radius: 3, Azimuth: float64(i), Elevation: 1}}},
			SpeedOfSound: c,
		}
		require.NoError(t, r.Publish(scene))
		require.True(t, r.Render([][]float64{in}, left, right))
		testutil.AssertNoNaNOrInf(t, left)
	}
	assert.Equal(t, 343.0, r.speed)
}

func TestRenderer_SourceTeleports(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBlockSize = 64
	r := newTestRenderer(t, cfg)

	in := testutil.Noise(64, 7)
	left := make([]float64, 64)
	right := make([]float64, 64)
	for _, radius := range []float64{20, 0.2, 10, 0.2, 20, 0.5} {
		require.NoError(t, r.Publish(Scene{Sources: []Source{{ID: 0, Position: Spherical{Radius: radius, Azimuth: 1, Elevation: 1.2}}}}))
		require.NotPanics(t, func() { r.Render([][]float64{in}, left, right) }, "radius %v", radius)
		testutil.AssertNoNaNOrInf(t, left)
		testutil.AssertNoNaNOrInf(t, right)
	}
}

func TestPositionFromXYZ(t *testing.T) {
	p := PositionFromXYZ(1, 0, 0)
	assert.InDelta(t, 1, p.Radius, 1e-12)
	assert.InDelta(t, math.Pi/2, p.Azimuth, 1e-12)
	assert.InDelta(t, math.Pi/2, p.Elevation, 1e-12)
}

func TestAcquireDataset(t *testing.T) {
	loads := 0
	load := func() (*Dataset, error) {
		loads++
		return testDataset(t), nil
	}

	ds1, release1, err := AcquireDataset(load)
	require.NoError(t, err)
	ds2, release2, err := AcquireDataset(load)
	require.NoError(t, err)
	assert.Same(t, ds1, ds2)
	assert.Equal(t, 1, loads)
	release1()
	release2()

	boom := errors.New("boom")
	_, _, err = AcquireDataset(func() (*Dataset, error) { return nil, boom })
	assert.ErrorIs(t, err, ErrInvalidDataset)
	assert.ErrorIs(t, err, boom)
}
