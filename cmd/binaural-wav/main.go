// Command binaural-wav renders a WAV file as a moving source for headphones.
//
// Usage:
//
//	binaural-wav input.wav output.wav                      # 2 m orbit, 8 s per turn
//	binaural-wav -path flyby -speed 30 car.wav car_3d.wav  # pass from left to right
//	binaural-wav -path static -azimuth 270 in.wav out.wav  # fixed on the left
//	binaural-wav -doppler=false -interp path in.wav out.wav
//
// Multichannel inputs are mixed down to mono. The output keeps the input
// sample rate; rendering runs internally at -rate kHz.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/go-audio/audio"
	binaural "github.com/tphakala/go-binaural"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// renderOptions collects everything renderWAV needs besides the file names.
type renderOptions struct {
	internalRate  float64
	path          binaural.Path
	interpolation binaural.Interpolation
	doppler       bool
	bitDepth      int // 0 keeps the input bit depth
	tail          float64
	verbose       bool
}

type renderStats struct {
	rate          int
	channels      int
	bitDepth      int
	inputSamples  int64
	outputSamples int64
	skippedBlocks int
	latency       float64
}

func run() error {
	rateKHz := flag.Float64("rate", defaultRateKHz, "Internal rendering rate in kHz")
	pathName := flag.String("path", "orbit", "Trajectory: static, orbit, flyby")
	radius := flag.Float64("radius", defaultRadius, "Source distance in meters (closest distance for flyby)")
	azimuth := flag.Float64("azimuth", 0, "Start azimuth in degrees (0 ahead, 90 right)")
	elevation := flag.Float64("elevation", defaultElevation, "Elevation in degrees (0 above, 90 level, 180 below)")
	period := flag.Float64("period", defaultPeriod, "Seconds per orbit, negative turns counterclockwise")
	speed := flag.Float64("speed", defaultSpeed, "Fly-by speed in m/s")
	interp := flag.String("interp", "realtime", "Filter interpolation: realtime, path")
	doppler := flag.Bool("doppler", true, "Apply Doppler shift")
	bits := flag.Int("bits", 0, "Output bit depth: 16, 24, 32 (default: input bit depth)")
	tail := flag.Float64("tail", defaultTail, "Seconds of output rendered after the input ends")
	verbose := flag.Bool("v", false, "Verbose output")
	cpuprofile := flag.String("cpuprofile", "", "Write CPU profile to file")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return fmt.Errorf("insufficient arguments")
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	path, err := parsePath(*pathName, pathParams{
		radius:     *radius,
		azimuth:    *azimuth * degToRad,
		elevation:  *elevation * degToRad,
		period:     *period,
		speed:      *speed,
		halfLength: defaultHalfLength,
	})
	if err != nil {
		return err
	}

	interpolation, err := parseInterpolation(*interp)
	if err != nil {
		return err
	}

	inputPath := args[0]
	outputPath := args[1]

	if *verbose {
		log.Printf("Input: %s", inputPath)
		log.Printf("Output: %s", outputPath)
		log.Printf("Path: %s at %.2f m", *pathName, *radius)
		log.Printf("Internal rate: %.0f Hz", *rateKHz*kHzToHz)
		log.Printf("Doppler: %v, interpolation: %s", *doppler, *interp)
	}

	start := time.Now()
	stats, err := renderWAV(inputPath, outputPath, renderOptions{
		internalRate:  *rateKHz * kHzToHz,
		path:          path,
		interpolation: interpolation,
		doppler:       *doppler,
		bitDepth:      *bits,
		tail:          *tail,
		verbose:       *verbose,
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Rendered %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
	fmt.Printf("  %d Hz, %d channels -> stereo %d-bit\n", stats.rate, stats.channels, stats.bitDepth)
	fmt.Printf("  %d samples -> %d samples (latency %.1f samples)\n",
		stats.inputSamples, stats.outputSamples, stats.latency)
	if stats.skippedBlocks > 0 {
		fmt.Printf("  Skipped blocks: %d\n", stats.skippedBlocks)
	}
	fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n",
		elapsed.Seconds(),
		float64(stats.outputSamples)/float64(stats.rate)/elapsed.Seconds())

	return nil
}

func parseInterpolation(s string) (binaural.Interpolation, error) {
	switch strings.ToLower(s) {
	case "realtime", "crossfade":
		return binaural.InterpolationRealtime, nil
	case "path":
		return binaural.InterpolationPath, nil
	default:
		return 0, fmt.Errorf("unknown interpolation %q (want realtime or path)", s)
	}
}

// renderWAV streams inputPath through a renderer and writes the binaural
// result to outputPath.
func renderWAV(inputPath, outputPath string, opts renderOptions) (stats *renderStats, err error) {
	// 1. Open and validate input
	input, err := openWAVInput(inputPath, opts.verbose)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	bitDepth := opts.bitDepth
	if bitDepth == 0 {
		bitDepth = input.bitDepth
	}

	// 2. Create the renderer
	cfg := binaural.DefaultConfig()
	cfg.SampleRate = opts.internalRate
	cfg.HostRate = float64(input.rate)
	cfg.MaxBlockSize = blockFrames
	cfg.MaxSources = 1
	cfg.EnableDoppler = opts.doppler
	cfg.Interpolation = opts.interpolation

	ds, err := binaural.SynthesizeDataset(&cfg, binaural.DefaultGrid(&cfg))
	if err != nil {
		return nil, err
	}
	renderer, err := binaural.New(&cfg, ds)
	if err != nil {
		return nil, err
	}

	// 3. Create output writer
	output, err := createWAVOutput(outputPath, input.rate, bitDepth)
	if err != nil {
		return nil, err
	}
	// Close output, capturing close errors on success path (the header is written on close)
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	// 4. Initialize buffers and tracking
	intBuffer := &audio.IntBuffer{
		Data:   make([]int, blockFrames*input.channels),
		Format: input.format,
	}
	mono := make([]float64, blockFrames)
	left := make([]float64, blockFrames)
	right := make([]float64, blockFrames)
	inputs := [][]float64{mono}
	scene := binaural.Scene{Sources: make([]binaural.Source, 1)}
	invMaxVal := 1.0 / getMaxValue(input.bitDepth)
	hostRate := float64(input.rate)

	stats = &renderStats{
		rate:     input.rate,
		channels: input.channels,
		bitDepth: bitDepth,
		latency:  renderer.Latency(),
	}
	progress := newProgressTracker(input.totalSamples, opts.verbose)

	renderBlock := func(frames int) error {
		scene.Sources[0] = binaural.Source{Position: opts.path(float64(stats.outputSamples) / hostRate)}
		if err := renderer.Publish(scene); err != nil {
			return err
		}

		inputs[0] = mono[:frames]
		clear(left[:frames])
		clear(right[:frames])
		if !renderer.Render(inputs, left[:frames], right[:frames]) {
			stats.skippedBlocks++
		}
		if err := output.WriteFrames(left[:frames], right[:frames]); err != nil {
			return err
		}
		stats.outputSamples += int64(frames)
		return nil
	}

	// 5. Main processing loop
	for {
		intBuffer.Data = intBuffer.Data[:cap(intBuffer.Data)]
		n, err := input.decoder.PCMBuffer(intBuffer)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read audio data: %w", err)
		}
		frames := n / input.channels
		if frames == 0 {
			break
		}

		downmixInto(intBuffer.Data[:frames*input.channels], mono, input.channels, invMaxVal)
		stats.inputSamples += int64(frames)

		if err := renderBlock(frames); err != nil {
			return nil, err
		}
		progress.reportIfNeeded(stats.inputSamples)
	}

	// 6. Let delayed and filtered signal ring out
	tailFrames := int(opts.tail * hostRate)
	clear(mono)
	for tailFrames > 0 {
		frames := min(tailFrames, blockFrames)
		if err := renderBlock(frames); err != nil {
			return nil, err
		}
		tailFrames -= frames
	}

	return stats, nil
}
