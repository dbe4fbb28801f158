// Command binaural-play plays tones orbiting the listener on the default
// audio device.
//
// Usage:
//
//	binaural-play                        # three voices, 6 s per orbit
//	binaural-play -voices 5 -radius 0.5  # closer, more voices
//	binaural-play -device-rate 44100     # render at 48 kHz, play at 44.1 kHz
//	binaural-play -duration 30s -v
//
// The device pulls frames through the renderer's audio side while a control
// goroutine publishes new source positions every few milliseconds.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ebitengine/oto/v3"
	binaural "github.com/tphakala/go-binaural"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	deviceRate := flag.Int("device-rate", defaultDeviceRate, "Audio device sample rate in Hz")
	internalRate := flag.Float64("rate", defaultInternalRate, "Internal rendering rate in Hz")
	voices := flag.Int("voices", defaultVoices, "Number of orbiting voices")
	radius := flag.Float64("radius", defaultRadius, "Orbit radius in meters")
	period := flag.Float64("period", defaultPeriod, "Seconds per orbit")
	baseFreq := flag.Float64("freq", defaultBaseFreq, "Frequency of the first voice in Hz")
	speedOfSound := flag.Float64("c", 0, "Speed of sound override in m/s (0 keeps the default)")
	interp := flag.String("interp", "realtime", "Filter interpolation: realtime, path")
	doppler := flag.Bool("doppler", true, "Apply Doppler shift")
	buffer := flag.Duration("buffer", defaultDeviceBuffer, "Audio device buffer length")
	duration := flag.Duration("duration", 0, "Stop after this long (0 plays until interrupted)")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	if *voices < minVoices {
		return fmt.Errorf("need at least %d voice, got %d", minVoices, *voices)
	}
	if !(*period > 0) {
		return fmt.Errorf("orbit period must be positive, got %v", *period)
	}

	cfg := binaural.DefaultConfig()
	cfg.SampleRate = *internalRate
	cfg.HostRate = float64(*deviceRate)
	cfg.MaxBlockSize = renderBlock
	cfg.MaxSources = *voices
	cfg.EnableDoppler = *doppler
	switch strings.ToLower(*interp) {
	case "realtime":
		cfg.Interpolation = binaural.InterpolationRealtime
	case "path":
		cfg.Interpolation = binaural.InterpolationPath
	default:
		return fmt.Errorf("unknown interpolation %q (want realtime or path)", *interp)
	}

	ds, err := binaural.SynthesizeDataset(&cfg, binaural.DefaultGrid(&cfg))
	if err != nil {
		return err
	}
	renderer, err := binaural.New(&cfg, ds)
	if err != nil {
		return err
	}

	if *verbose {
		log.Printf("Device: %d Hz, internal: %.0f Hz, latency %.1f samples", *deviceRate, cfg.SampleRate, renderer.Latency())
		log.Printf("Voices: %d at %.2f m, %.1f s per orbit", *voices, *radius, *period)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   *deviceRate,
		ChannelCount: stereoChannels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   *buffer,
	})
	if err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	<-ready

	chor := &choreography{voices: *voices, radius: *radius, period: *period}
	initial := binaural.Scene{SpeedOfSound: *speedOfSound}
	chor.sceneAt(0, &initial)
	if err := renderer.Publish(initial); err != nil {
		return err
	}

	pl := newPlayer(renderer, *voices, *baseFreq, float64(*deviceRate))
	device := otoCtx.NewPlayer(pl)
	device.Play()
	defer device.Pause()

	var missed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return automate(gctx, renderer, chor, defaultSceneTick, *speedOfSound, &missed)
	})
	if *verbose {
		g.Go(func() error {
			ticker := time.NewTicker(defaultStatsEvery)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					log.Printf("Rendered %d frames, skipped %d blocks, missed %d scenes",
						pl.rendered.Load(), pl.skipped.Load(), missed.Load())
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := device.Err(); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	fmt.Printf("Played %.1fs, skipped %d blocks\n",
		float64(pl.rendered.Load())/float64(*deviceRate), pl.skipped.Load())
	return nil
}
