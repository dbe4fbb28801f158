package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavInputInfo holds validated input file information.
type wavInputInfo struct {
	file         *os.File
	decoder      *wav.Decoder
	rate         int
	channels     int
	bitDepth     int
	totalSamples int64
	format       *audio.Format
}

// openWAVInput opens and validates a WAV file, returning format information.
func openWAVInput(path string, verbose bool) (*wavInputInfo, error) {
	inputFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(inputFile)
	if !decoder.IsValidFile() {
		_ = inputFile.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	inputRate := format.SampleRate
	channels := format.NumChannels
	bitDepth := int(decoder.BitDepth)

	if channels < monoChannels {
		_ = inputFile.Close()
		return nil, fmt.Errorf("invalid channel count %d: %s", channels, path)
	}

	if verbose {
		log.Printf("Input format: %d Hz, %d channels, %d-bit", inputRate, channels, bitDepth)
	}

	// Total duration for progress reporting
	duration, err := decoder.Duration()
	if err != nil {
		duration = 0
	}
	totalSamples := int64(duration.Seconds() * float64(inputRate))

	return &wavInputInfo{
		file:         inputFile,
		decoder:      decoder,
		rate:         inputRate,
		channels:     channels,
		bitDepth:     bitDepth,
		totalSamples: totalSamples,
		format:       format,
	}, nil
}

// Close closes the input file.
func (w *wavInputInfo) Close() error {
	return w.file.Close()
}

// wavOutputWriter wraps the output file and its encoder.
type wavOutputWriter struct {
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
	maxVal  float64
}

// createWAVOutput creates a stereo PCM output file.
func createWAVOutput(path string, sampleRate, bitDepth int) (*wavOutputWriter, error) {
	switch bitDepth {
	case bitsPerSample16, bitsPerSample24, bitsPerSample32:
	default:
		return nil, fmt.Errorf("unsupported output bit depth %d", bitDepth)
	}

	outputFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &wavOutputWriter{
		file:    outputFile,
		encoder: wav.NewEncoder(outputFile, sampleRate, bitDepth, stereoChannels, pcmFormat),
		buf: &audio.IntBuffer{
			Data:           make([]int, blockFrames*stereoChannels),
			Format:         &audio.Format{SampleRate: sampleRate, NumChannels: stereoChannels},
			SourceBitDepth: bitDepth,
		},
		maxVal: getMaxValue(bitDepth),
	}, nil
}

// WriteFrames converts and writes one block of stereo frames.
func (w *wavOutputWriter) WriteFrames(left, right []float64) error {
	n := interleaveInto(left, right, w.buf.Data[:cap(w.buf.Data)], w.maxVal)
	w.buf.Data = w.buf.Data[:n]
	if err := w.encoder.Write(w.buf); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	return nil
}

// Close finalizes the WAV header and closes the file.
func (w *wavOutputWriter) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return w.file.Close()
}

// progressTracker handles progress reporting.
type progressTracker struct {
	totalSamples int64
	lastProgress int
	verbose      bool
}

// newProgressTracker creates a new progress tracker.
func newProgressTracker(totalSamples int64, verbose bool) *progressTracker {
	return &progressTracker{
		totalSamples: totalSamples,
		verbose:      verbose,
	}
}

// reportIfNeeded reports progress if threshold crossed.
func (p *progressTracker) reportIfNeeded(currentSamples int64) {
	if !p.verbose || p.totalSamples == 0 {
		return
	}

	progress := int(float64(currentSamples) / float64(p.totalSamples) * percentScale)
	if progress >= p.lastProgress+progressInterval {
		log.Printf("Progress: %d%%", progress)
		p.lastProgress = progress
	}
}

// getMaxValue returns the maximum sample value for the given bit depth.
func getMaxValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return maxInt16
	}
}

// downmixInto averages interleaved int frames into a mono float buffer and
// returns the number of frames written.
func downmixInto(data []int, dst []float64, numChannels int, invMaxVal float64) int {
	frames := min(len(data)/numChannels, len(dst))

	// Fast path for mono
	if numChannels == monoChannels {
		for i := range frames {
			dst[i] = float64(data[i]) * invMaxVal
		}
		return frames
	}

	scale := invMaxVal / float64(numChannels)
	for i := range frames {
		base := i * numChannels
		var sum int
		for ch := range numChannels {
			sum += data[base+ch]
		}
		dst[i] = float64(sum) * scale
	}
	return frames
}

// interleaveInto clamps and converts stereo frames into dst and returns the
// number of ints written.
func interleaveInto(left, right []float64, dst []int, maxVal float64) int {
	frames := min(len(left), len(right), len(dst)/stereoChannels)
	for i := range frames {
		dst[i*stereoChannels] = int(clampUnit(left[i]) * maxVal)
		dst[i*stereoChannels+1] = int(clampUnit(right[i]) * maxVal)
	}
	return frames * stereoChannels
}

func clampUnit(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < -1.0 {
		return -1.0
	}
	return v
}
