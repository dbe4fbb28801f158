// Package binaural renders moving sound sources for headphones in pure Go.
//
// Each source's mono signal is convolved with a head-related impulse
// response (HRIR) pair interpolated for its distance, azimuth and elevation,
// delayed per ear by the propagation time to model Doppler shift, and mixed
// into a stereo pair.
//
// # Features
//
//   - Spatial interpolation of a hemisphere HRIR grid with mirrored lookup
//     and pole handling
//   - Click-free filter changes by per-block crossfade or path interpolation
//   - Doppler shift from a forward-mapping fractional delay line
//   - Wait-free scene publication from control goroutines to the audio
//     goroutine
//   - Arbitrary host sample rates through paired linear resamplers
//   - A synthetic spherical-head dataset for use without measured HRIRs
//   - Optional SIMD acceleration via github.com/tphakala/simd
//
// # Quick Start
//
// For one-shot rendering of a file-sized buffer:
//
//	cfg := binaural.DefaultConfig()
//	ds, err := binaural.SynthesizeDataset(&cfg, binaural.DefaultGrid(&cfg))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	left, right, err := binaural.RenderOffline(&cfg, ds, mono, func(t float64) binaural.Spherical {
//	    return binaural.Spherical{Radius: 2, Azimuth: t, Elevation: math.Pi / 2}
//	})
//
// For streaming, create a [Renderer], publish scenes from a control
// goroutine and call [Renderer.Render] from the audio callback:
//
//	r, err := binaural.New(&cfg, ds)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Control goroutine
//	r.Publish(binaural.Scene{Sources: []binaural.Source{{ID: 0, Position: pos}}})
//
//	// Audio goroutine
//	clear(left)
//	clear(right)
//	if !r.Render(inputs, left, right) {
//	    // Scene busy: output this block as silence.
//	}
//
// # Coordinates
//
// The listener sits at the origin facing +y with +x to the right and +z up.
// Azimuth 0 is straight ahead and π/2 is the right ear; elevation 0 is
// directly above, π/2 the horizontal plane and π directly below. The ears
// sit at ±HeadRadius on the x axis.
//
// # Architecture
//
//	host block -> [forward resample] -> per source: HRIR convolution -> Doppler -> mix -> [inverse resample] -> host block
//
// When the host rate equals [Config.SampleRate] the resamplers are skipped.
// The inverse resampler always returns exactly the host block length.
//
// # Thread Safety
//
// [Renderer.Publish] and [Renderer.TryPublish] may be called from any
// number of control goroutines. [Renderer.Render] must be called from a
// single audio goroutine; it never blocks and returns false when it could
// not obtain the scene, in which case the block should be treated as
// silent.
package binaural
