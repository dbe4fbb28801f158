package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tphakala/go-binaural/internal/testutil"
)

// TestBesselI0 tests BesselI0 against known values.
func TestBesselI0(t *testing.T) {
	tests := []struct {
		name      string
		x         float64
		expected  float64
		tolerance float64
	}{
		{"Zero", 0.0, 1.0, 1e-15},
		{"Small positive", 0.5, 1.063483371, 1e-8},
		{"One", 1.0, 1.266065878, 1e-8},
		{"Two", 2.0, 2.279585302, 1e-8},
		{"Three", 3.0, 4.880792586, 1e-8},
		{"Five", 5.0, 27.23987182, 1e-8},
		{"Ten", 10.0, 2815.716628, 1e-8},
		{"Twenty", 20.0, 4.355828256e7, 1e-8},
		{"Negative one", -1.0, 1.266065878, 1e-8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BesselI0(tt.x)
			testutil.AssertRelativeError(t, tt.expected, result, tt.tolerance)
		})
	}
}

// TestBesselI0_Monotonic tests I₀(x) is monotonically increasing for x > 0.
func TestBesselI0_Monotonic(t *testing.T) {
	prev := BesselI0(0)
	for x := 0.1; x < 10.0; x += 0.1 {
		curr := BesselI0(x)
		assert.Greater(t, curr, prev, "BesselI0 not increasing at x=%v", x)
		prev = curr
	}
}

// TestKaiserBeta tests Kaiser beta calculation across the three formula regions.
func TestKaiserBeta(t *testing.T) {
	tests := []struct {
		name        string
		attenuation float64
		expectedMin float64
		expectedMax float64
	}{
		{"20dB", 20.0, 0.0, 0.0},
		{"30dB", 30.0, 2.1, 2.2},
		{"50dB", 50.0, 4.5, 4.6},
		{"60dB", 60.0, 5.6, 5.7},
		{"80dB", 80.0, 7.8, 7.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			beta := KaiserBeta(tt.attenuation)
			testutil.AssertInRange(t, beta, tt.expectedMin, tt.expectedMax)
		})
	}
}

// BenchmarkBesselI0 benchmarks BesselI0 for a typical window argument.
func BenchmarkBesselI0(b *testing.B) {
	x := 6.0
	for b.Loop() {
		_ = BesselI0(x)
	}
}
