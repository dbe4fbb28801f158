// Command hrir-inspect prints the interaural cues of the synthesized HRIR
// field: onset delay, interaural time and level differences, and the
// magnitude response of both ears in a few bands.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"

	binaural "github.com/tphakala/go-binaural"
	"github.com/tphakala/go-binaural/internal/filter"
	"github.com/tphakala/go-binaural/internal/hrir"
)

const (
	// Fraction of the peak that marks the onset of an impulse response.
	onsetThreshold = 0.1

	// Continuity scan parameters
	scanStepDeg = 1.0
	fullTurnDeg = 360.0

	degToRad        = math.Pi / 180
	secondsToMicros = 1e6
	powerToDB       = 20.0
	minMagnitude    = 1e-12
)

// Band centres reported per ear, in Hz.
var bands = []float64{250, 1000, 4000, 8000, 16000}

// Directions reported in the cue table.
var directions = []struct {
	name      string
	azimuth   float64 // degrees
	elevation float64 // degrees
}{
	{"front", 0, 90},
	{"front-right", 45, 90},
	{"right", 90, 90},
	{"back", 180, 90},
	{"left", 270, 90},
	{"above", 0, 0},
	{"below", 0, 180},
	{"right-up", 90, 45},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rate := flag.Float64("rate", binaural.RateDAT, "Dataset sample rate in Hz")
	taps := flag.Int("taps", 0, "Filter length (0 keeps the default grid)")
	distance := flag.Float64("distance", 1, "Source distance in meters")
	headRadius := flag.Float64("head", 0, "Head radius in meters (0 keeps the default)")
	flag.Parse()

	cfg := binaural.DefaultConfig()
	cfg.SampleRate = *rate
	if *headRadius > 0 {
		cfg.HeadRadius = *headRadius
	}
	grid := binaural.DefaultGrid(&cfg)
	if *taps > 0 {
		grid.Taps = *taps
	}

	ds, err := binaural.SynthesizeDataset(&cfg, grid)
	if err != nil {
		return err
	}
	field, err := hrir.NewField(ds)
	if err != nil {
		return err
	}

	fmt.Println("=== HRIR Field ===")
	fmt.Printf("  Sample rate: %.0f Hz\n", grid.SampleRate)
	fmt.Printf("  Taps: %d\n", grid.Taps)
	fmt.Printf("  Distances: %d rings from %.2f m to %.2f m\n", grid.DistanceSteps, grid.DistanceBegin, grid.DistanceEnd)
	for i := range grid.DistanceSteps {
		fmt.Printf("    ring %d: %.3f m\n", i, grid.Distance(i))
	}
	fmt.Printf("  Azimuth step: %.2f°, elevation step: %.2f°\n",
		grid.AzimuthStep()/degToRad, grid.ElevationStep()/degToRad)

	fft := fourier.NewFFT(grid.Taps)
	pair := hrir.NewFilterPair(grid.Taps)

	fmt.Printf("\n=== Cues at %.2f m ===\n", *distance)
	fmt.Printf("  %-12s %8s %8s %9s %8s", "direction", "onsetL", "onsetR", "ITD(µs)", "ILD(dB)")
	for _, f := range bands {
		fmt.Printf(" %7.0fHz", f)
	}
	fmt.Printf(" %13s\n", "centroid(Hz)")

	for _, d := range directions {
		field.Lookup(pair, *distance, d.azimuth*degToRad, d.elevation*degToRad)

		onsetL := onset(pair.Taps[0])
		onsetR := onset(pair.Taps[1])
		itd := float64(onsetL-onsetR) / grid.SampleRate * secondsToMicros
		ild := powerToDB * math.Log10(
			(floats.Norm(pair.Taps[1], 2)*pair.Scale[1]+minMagnitude)/
				(floats.Norm(pair.Taps[0], 2)*pair.Scale[0]+minMagnitude))

		fmt.Printf("  %-12s %8d %8d %9.1f %8.2f", d.name, onsetL, onsetR, itd, ild)
		specL := magnitudes(pair.Taps[0], pair.Scale[0], grid.SampleRate)
		specR := magnitudes(pair.Taps[1], pair.Scale[1], grid.SampleRate)
		for i := range bands {
			fmt.Printf(" %4.1f/%4.1f", specL[i], specR[i])
		}
		fmt.Printf(" %6.0f/%6.0f\n",
			centroid(fft, pair.Taps[0], grid.SampleRate), centroid(fft, pair.Taps[1], grid.SampleRate))
	}

	// Largest change between lookups one degree apart on the horizontal plane.
	fmt.Println("\n=== Continuity (horizontal plane) ===")
	prev := hrir.NewFilterPair(grid.Taps)
	field.Lookup(prev, *distance, 0, math.Pi/2)
	var worst, worstAz float64
	for az := scanStepDeg; az <= fullTurnDeg; az += scanStepDeg {
		field.Lookup(pair, *distance, az*degToRad, math.Pi/2)
		for ch := range pair.Taps {
			diff := floats.Distance(pair.Taps[ch], prev.Taps[ch], math.Inf(1))
			if diff > worst {
				worst, worstAz = diff, az
			}
			copy(prev.Taps[ch], pair.Taps[ch])
		}
	}
	fmt.Printf("  Max tap change per %.0f°: %.6f at %.0f°\n", scanStepDeg, worst, worstAz)

	return nil
}

// onset returns the index of the first tap reaching onsetThreshold of the
// peak magnitude.
func onset(h []float64) int {
	peak := math.Abs(h[floats.MaxIdx(h)])
	if low := math.Abs(h[floats.MinIdx(h)]); low > peak {
		peak = low
	}
	for i, v := range h {
		if math.Abs(v) >= onsetThreshold*peak {
			return i
		}
	}
	return 0
}

// magnitudes returns the response of h in dB at each band centre.
func magnitudes(h []float64, scale, sampleRate float64) []float64 {
	out := make([]float64, len(bands))
	for i, f := range bands {
		out[i] = filter.MagnitudeDB(filter.Magnitude(h, f/sampleRate) * scale)
	}
	return out
}

// centroid returns the spectral centroid of h in Hz.
func centroid(fft *fourier.FFT, h []float64, sampleRate float64) float64 {
	coeff := fft.Coefficients(nil, h)
	var weighted, total float64
	for k, c := range coeff {
		m := cmplx.Abs(c)
		weighted += m * fft.Freq(k) * sampleRate
		total += m
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}
