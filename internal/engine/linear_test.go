package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-binaural/internal/testutil"
)

func TestNewResampler_Validation(t *testing.T) {
	tests := []struct {
		name      string
		in, out   float64
		blockLen  int
		direction Direction
		wantErr   bool
	}{
		{"valid forward", 44100, 48000, 512, Forward, false},
		{"valid inverse", 48000, 44100, 512, Inverse, false},
		{"zero input rate", 0, 48000, 512, Forward, true},
		{"negative output rate", 48000, -1, 512, Forward, true},
		{"NaN rate", math.NaN(), 48000, 512, Forward, true},
		{"empty block", 48000, 48000, 0, Forward, true},
		{"forward block shorter than output period", 48000, 1000, 1, Forward, true},
		{"inverse block shorter than input period", 1000, 48000, 1, Inverse, true},
		{"unknown direction", 48000, 48000, 64, Direction(7), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewResampler(tt.in, tt.out, tt.blockLen, tt.direction)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.blockLen, r.BlockLen())
			assert.InDelta(t, tt.out/tt.in, r.Ratio(), 1e-12)
		})
	}
}

// TestResampler_Conservation verifies the cumulative output count tracks
// total input × fs_out/fs_in within one sample.
func TestResampler_Conservation(t *testing.T) {
	tests := []struct {
		name    string
		in, out float64
		block   int
	}{
		{"44.1k to 48k", 44100, 48000, 512},
		{"48k to 44.1k", 48000, 44100, 256},
		{"48k to 96k", 48000, 96000, 256},
		{"96k to 48k", 96000, 48000, 256},
		{"same rate", 48000, 48000, 128},
		{"22.05k to 48k", 22050, 48000, 100},
	}

	const calls = 500

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewResampler(tt.in, tt.out, tt.block, Forward)
			require.NoError(t, err)

			in := testutil.Noise(tt.block, 7)
			dst := make([]float64, r.MaxOutputLen())

			total := 0
			for call := 1; call <= calls; call++ {
				n := r.Resample(dst, in)
				require.LessOrEqual(t, n, r.MaxOutputLen())
				total += n

				expected := float64(call*tt.block) * tt.out / tt.in
				require.InDelta(t, expected, float64(total), 1.0+1e-9,
					"call %d: cumulative output drifted", call)
			}
		})
	}
}

func TestResampler_ShortBuffer(t *testing.T) {
	r, err := NewResampler(48000, 44100, 256, Forward)
	require.NoError(t, err)

	in := make([]float64, 256)
	dst := make([]float64, r.MaxOutputLen())
	ceiling := int(math.Ceil(r.OutputLen()))

	sawShort, sawFull := false, false
	for range 50 {
		n := r.Resample(dst, in)
		assert.Equal(t, n < ceiling, r.ShortBuffer())
		sawShort = sawShort || r.ShortBuffer()
		sawFull = sawFull || !r.ShortBuffer()
	}
	assert.True(t, sawShort, "fractional ratio should produce short blocks")
	assert.True(t, sawFull, "fractional ratio should produce full blocks")
}

// TestResampler_Ramp checks that a linear signal is reproduced exactly at the
// output sample times, including across block boundaries.
func TestResampler_Ramp(t *testing.T) {
	const (
		inRate  = 44100.0
		outRate = 48000.0
		block   = 441
		blocks  = 20
	)

	r, err := NewResampler(inRate, outRate, block, Forward)
	require.NoError(t, err)

	// Global sample g holds g+1, so the implicit zero at index -1 continues
	// the ramp.
	ramp := testutil.Ramp(block * blocks)
	dst := make([]float64, r.MaxOutputLen())

	var out []float64
	for b := range blocks {
		n := r.Resample(dst, ramp[b*block:(b+1)*block])
		out = append(out, dst[:n]...)
	}

	step := inRate / outRate
	for k, v := range out {
		require.InDelta(t, float64(k)*step, v, 1e-6, "output %d", k)
	}
}

func TestResampler_IdentityRateDelaysOneSample(t *testing.T) {
	r, err := NewResampler(48000, 48000, 64, Forward)
	require.NoError(t, err)

	in := testutil.Noise(128, 3)
	dst := make([]float64, r.MaxOutputLen())

	n := r.Resample(dst, in[:64])
	require.Equal(t, 64, n)
	assert.InDelta(t, 0.0, dst[0], 1e-12)
	testutil.AssertSlicesInDelta(t, in[:63], dst[1:64], 1e-12)

	n = r.Resample(dst, in[64:])
	require.Equal(t, 64, n)
	testutil.AssertSlicesInDelta(t, in[63:127], dst[:64], 1e-12)
}

// TestResampler_UnsampleRoundTrip pairs a forward and an inverse resampler the
// way the host bridge does: the inverse always yields the host block length
// and the signal survives with a fixed latency.
func TestResampler_UnsampleRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		host     float64
		internal float64
		block    int
	}{
		{"48k host, 44.1k internal", 48000, 44100, 256},
		{"44.1k host, 48k internal", 44100, 48000, 256},
		{"96k host, 48k internal", 96000, 48000, 480},
		{"32k host, 48k internal", 32000, 48000, 333},
	}

	const (
		blocks = 80
		freq   = 200.0
		warmup = 16
	)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forward, err := NewResampler(tt.host, tt.internal, tt.block, Forward)
			require.NoError(t, err)
			inverse, err := NewResampler(tt.internal, tt.host, tt.block, Inverse)
			require.NoError(t, err)

			in := testutil.Sine(tt.block*blocks, freq, tt.host)
			mid := make([]float64, forward.MaxOutputLen())
			out := make([]float64, tt.block*blocks)

			for b := range blocks {
				n := forward.Resample(mid, in[b*tt.block:(b+1)*tt.block])
				require.LessOrEqual(t, n, inverse.MaxInputLen())
				m := inverse.Unsample(out[b*tt.block:(b+1)*tt.block], mid[:n])
				require.Equal(t, tt.block, m, "block %d", b)
			}

			latency := 1 + tt.host/tt.internal
			omega := 2 * math.Pi * freq / tt.host
			for k := warmup; k < len(out); k++ {
				want := math.Sin(omega * (float64(k) - latency))
				require.InDelta(t, want, out[k], 2e-3, "sample %d", k)
			}
		})
	}
}

func TestResampler_UnsampleMismatchedInputStaysBounded(t *testing.T) {
	r, err := NewResampler(44100, 48000, 128, Inverse)
	require.NoError(t, err)

	dst := make([]float64, 128)
	short := testutil.Noise(10, 1)
	long := testutil.Noise(400, 2)

	for range 20 {
		assert.Equal(t, 128, r.Unsample(dst, short))
		testutil.AssertAllInRange(t, dst, -1, 1)
	}
	assert.LessOrEqual(t, r.Offset(), 1/44100.0+1e-15)

	for range 20 {
		assert.Equal(t, 128, r.Unsample(dst, long))
	}
	assert.GreaterOrEqual(t, r.Offset(), -1/44100.0-1e-15)

	assert.Equal(t, 128, r.Unsample(dst, nil))
}

func TestResampler_Reset(t *testing.T) {
	r, err := NewResampler(44100, 48000, 441, Forward)
	require.NoError(t, err)
	fresh, err := NewResampler(44100, 48000, 441, Forward)
	require.NoError(t, err)

	in := testutil.Noise(441, 11)
	dst := make([]float64, r.MaxOutputLen())
	want := make([]float64, fresh.MaxOutputLen())

	for range 3 {
		r.Resample(dst, in)
	}
	r.Reset()
	assert.Zero(t, r.Offset())

	n := r.Resample(dst, in)
	m := fresh.Resample(want, in)
	require.Equal(t, m, n)
	assert.Equal(t, want[:m], dst[:n])
}

func BenchmarkResampler_Resample(b *testing.B) {
	r, err := NewResampler(44100, 48000, 512, Forward)
	require.NoError(b, err)

	in := testutil.Noise(512, 1)
	dst := make([]float64, r.MaxOutputLen())

	for b.Loop() {
		r.Resample(dst, in)
	}
}
