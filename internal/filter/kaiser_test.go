package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/go-binaural/internal/testutil"
	"github.com/tphakala/simd/f64"
)

func TestKaiserWindow_Symmetric(t *testing.T) {
	const length = 31
	center := float64(length-1) / 2
	w := KaiserWindow(length, center, center, 6)

	require.Len(t, w, length)
	for i := range length / 2 {
		assert.InDelta(t, w[i], w[length-1-i], 1e-12, "index %d", i)
	}
	assert.InDelta(t, 1.0, w[length/2], 1e-12, "peak at center")
	testutil.AssertAllInRange(t, w, 0, 1)
}

func TestKaiserWindow_ZeroWidth(t *testing.T) {
	w := KaiserWindow(8, 3.2, 0, 5)
	assert.Equal(t, []float64{0, 0, 0, 1, 0, 0, 0, 0}, w)
}

func TestFractionalDelay_UnitGainAndPeak(t *testing.T) {
	tests := []struct {
		name  string
		delay float64
		peak  int
	}{
		{"integer", 8, 8},
		{"fraction below half", 8.3, 8},
		{"fraction above half", 8.7, 9},
		{"small delay", 1.2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := FractionalDelay(DelayParams{NumTaps: 32, Delay: tt.delay, Cutoff: 0.45, Attenuation: 60, Gain: 1})
			require.NoError(t, err)
			testutil.AssertNoNaNOrInf(t, k)
			assert.InDelta(t, 1.0, f64.Sum(k), 1e-9)

			peak := 0
			for i := range k {
				if k[i] > k[peak] {
					peak = i
				}
			}
			assert.Equal(t, tt.peak, peak)
		})
	}
}

func TestFractionalDelay_DCGainFollowsParams(t *testing.T) {
	for _, gain := range []float64{0.25, 0.7, 2} {
		k, err := FractionalDelay(DelayParams{NumTaps: 24, Delay: 10.4, Cutoff: 0.4, Attenuation: 60, Gain: gain})
		require.NoError(t, err)
		assert.InDelta(t, gain, f64.Sum(k), 1e-9)
		assert.InDelta(t, gain, Magnitude(k, 0), 1e-9)
	}
}

func TestFractionalDelay_LowPass(t *testing.T) {
	k, err := FractionalDelay(DelayParams{NumTaps: 64, Delay: 31.5, Cutoff: 0.1, Attenuation: 60, Gain: 1})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, Magnitude(k, 0), 1e-9)
	assert.Less(t, MagnitudeDB(Magnitude(k, 0.35)), -40.0)
}

func TestFractionalDelay_InvalidParams(t *testing.T) {
	tests := []struct {
		name string
		p    DelayParams
	}{
		{"too short", DelayParams{NumTaps: 1, Delay: 0, Cutoff: 0.4, Attenuation: 60, Gain: 1}},
		{"negative delay", DelayParams{NumTaps: 16, Delay: -1, Cutoff: 0.4, Attenuation: 60, Gain: 1}},
		{"delay past end", DelayParams{NumTaps: 16, Delay: 16, Cutoff: 0.4, Attenuation: 60, Gain: 1}},
		{"cutoff above nyquist", DelayParams{NumTaps: 16, Delay: 4, Cutoff: 0.6, Attenuation: 60, Gain: 1}},
		{"negative attenuation", DelayParams{NumTaps: 16, Delay: 4, Cutoff: 0.4, Attenuation: -1, Gain: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FractionalDelay(tt.p)
			assert.Error(t, err)
		})
	}
}
