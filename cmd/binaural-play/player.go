package main

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	binaural "github.com/tphakala/go-binaural"
	"github.com/tphakala/go-binaural/internal/pipeline"
	"github.com/tphakala/go-binaural/internal/simdops"
)

// oscillator is a sine voice at the device rate.
type oscillator struct {
	phase float64
	step  float64
	level float64
}

func (o *oscillator) fill(dst []float64) {
	for i := range dst {
		dst[i] = o.level * math.Sin(o.phase)
		o.phase += o.step
		if o.phase >= 2*math.Pi {
			o.phase -= 2 * math.Pi
		}
	}
}

// player renders on demand from the audio device's pull callback. Read runs
// on the device goroutine, which is the renderer's audio goroutine.
type player struct {
	renderer *binaural.Renderer
	voices   []oscillator
	inputs   [][]float64

	left, right []float64
	queue       *pipeline.FrameQueue

	outL, outR []float64
	out32L     []float32
	out32R     []float32
	frames32   []float32

	skipped  atomic.Int64
	rendered atomic.Int64
}

func newPlayer(r *binaural.Renderer, voices int, baseFreq, deviceRate float64) *player {
	p := &player{
		renderer: r,
		voices:   make([]oscillator, voices),
		inputs:   make([][]float64, voices),
		left:     make([]float64, renderBlock),
		right:    make([]float64, renderBlock),
		queue:    pipeline.NewFrameQueue(maxReadFrames + renderBlock),
		outL:     make([]float64, maxReadFrames),
		outR:     make([]float64, maxReadFrames),
		out32L:   make([]float32, maxReadFrames),
		out32R:   make([]float32, maxReadFrames),
		frames32: make([]float32, maxReadFrames*stereoChannels),
	}
	freq := baseFreq
	for i := range p.voices {
		p.voices[i] = oscillator{
			step:  2 * math.Pi * freq / deviceRate,
			level: voiceLevel / float64(voices),
		}
		p.inputs[i] = make([]float64, renderBlock)
		freq *= harmonicSpacing
	}
	return p
}

// Read implements io.Reader with interleaved float32 little-endian frames.
func (p *player) Read(b []byte) (int, error) {
	frames := len(b) / bytesPerFrame
	written := 0
	for frames > 0 {
		n := min(frames, maxReadFrames)
		p.fill(n)
		p.encode(b[written:written+n*bytesPerFrame], n)
		written += n * bytesPerFrame
		frames -= n
	}
	clear(b[written:])
	return len(b), nil
}

// fill renders blocks until the queue holds n frames and moves them to
// outL and outR.
func (p *player) fill(n int) {
	for p.queue.Available() < n {
		for i := range p.voices {
			p.voices[i].fill(p.inputs[i])
		}
		clear(p.left)
		clear(p.right)
		if !p.renderer.Render(p.inputs, p.left, p.right) {
			p.skipped.Add(1)
		}
		p.queue.Write(p.left, p.right)
		p.rendered.Add(renderBlock)
	}
	p.queue.Read(p.outL[:n], p.outR[:n])
}

func (p *player) encode(dst []byte, n int) {
	for i := range n {
		p.out32L[i] = float32(p.outL[i])
		p.out32R[i] = float32(p.outR[i])
	}
	interleaved := p.frames32[:n*stereoChannels]
	simdops.Float32Ops().Interleave2(interleaved, p.out32L[:n], p.out32R[:n])
	for i, v := range interleaved {
		binary.LittleEndian.PutUint32(dst[i*bytesPerSample:], math.Float32bits(v))
	}
}
