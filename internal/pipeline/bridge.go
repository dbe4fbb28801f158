// Package pipeline adapts the renderer's fixed internal sample rate to the
// host's block size and rate.
package pipeline

import (
	"fmt"
	"math"

	"github.com/tphakala/go-binaural/internal/engine"
)

// RenderFunc renders one block at the internal rate. in holds one slice per
// input, all of the same length as left and right, which it accumulates into.
type RenderFunc func(in [][]float64, left, right []float64)

// Bridge converts host-rate blocks to the internal rate, renders them and
// converts the stereo result back. Each input has its own forward resampler;
// the mix is returned through a pair of inverse resamplers, so the host
// always receives exactly the number of samples it asked for.
type Bridge struct {
	hostRate     float64
	internalRate float64
	hostBlock    int
	passthrough  bool

	clock   *engine.Resampler
	forward []*engine.Resampler
	inverse [2]*engine.Resampler

	zeros     []float64
	resampled [][]float64
	views     [][]float64
	chunk     [][]float64
	mix       [2][]float64
	back      [2][]float64
}

// NewBridge creates a bridge for host blocks of up to hostBlock samples and
// the given number of inputs.
func NewBridge(hostRate, internalRate float64, hostBlock, inputs int) (*Bridge, error) {
	if hostBlock < 1 {
		return nil, fmt.Errorf("host block size must be positive: %d", hostBlock)
	}
	if inputs < 0 {
		return nil, fmt.Errorf("input count must not be negative: %d", inputs)
	}
	if !(hostRate > 0) || !(internalRate > 0) {
		return nil, fmt.Errorf("sample rates must be positive: host=%f, internal=%f", hostRate, internalRate)
	}

	b := &Bridge{
		hostRate:     hostRate,
		internalRate: internalRate,
		hostBlock:    hostBlock,
		passthrough:  math.Abs(hostRate-internalRate) <= rateTolerance*internalRate,
		views:        make([][]float64, inputs),
		chunk:        make([][]float64, 0, inputs),
	}
	if b.passthrough {
		return b, nil
	}

	var err error
	if b.clock, err = engine.NewResampler(hostRate, internalRate, hostBlock, engine.Forward); err != nil {
		return nil, fmt.Errorf("forward resampler: %w", err)
	}
	internalMax := b.clock.MaxOutputLen()

	b.forward = make([]*engine.Resampler, inputs)
	b.resampled = make([][]float64, inputs)
	for i := range inputs {
		b.forward[i], err = engine.NewResampler(hostRate, internalRate, hostBlock, engine.Forward)
		if err != nil {
			return nil, fmt.Errorf("forward resampler: %w", err)
		}
		b.resampled[i] = make([]float64, internalMax)
	}

	for ch := range b.inverse {
		b.inverse[ch], err = engine.NewResampler(internalRate, hostRate, hostBlock, engine.Inverse)
		if err != nil {
			return nil, fmt.Errorf("inverse resampler: %w", err)
		}
		b.mix[ch] = make([]float64, internalMax)
		b.back[ch] = make([]float64, hostBlock)
	}
	b.zeros = make([]float64, hostBlock)

	return b, nil
}

// Passthrough reports whether host and internal rates are equal.
func (b *Bridge) Passthrough() bool {
	return b.passthrough
}

// InternalBlockMax returns the largest block the render function receives.
func (b *Bridge) InternalBlockMax() int {
	if b.passthrough {
		return b.hostBlock
	}
	return b.clock.MaxOutputLen()
}

// Latency returns the delay the conversion adds, in host samples.
func (b *Bridge) Latency() float64 {
	if b.passthrough {
		return 0
	}
	return 1 + b.hostRate/b.internalRate
}

// Process renders one host block. inputs[i] may be nil for a silent input;
// non-nil inputs must be at least len(left) long. The rendered mix is added
// to left and right.
func (b *Bridge) Process(inputs [][]float64, render RenderFunc, left, right []float64) {
	n := min(len(left), len(right))
	if n > b.hostBlock {
		for start := 0; start < n; start += b.hostBlock {
			end := min(start+b.hostBlock, n)
			b.Process(sliceInputs(inputs, start, end, b.chunk), render, left[start:end], right[start:end])
		}
		return
	}

	if b.passthrough {
		render(inputs, left[:n], right[:n])
		return
	}

	m := b.clock.Resample(b.mix[0], b.zeros[:n])
	for i, fw := range b.forward {
		src := b.zeros[:n]
		if i < len(inputs) && inputs[i] != nil {
			src = inputs[i][:n]
		}
		fw.Resample(b.resampled[i], src)
		b.views[i] = b.resampled[i][:m]
	}

	clear(b.mix[0][:m])
	clear(b.mix[1][:m])
	render(b.views, b.mix[0][:m], b.mix[1][:m])

	out := [2][]float64{left[:n], right[:n]}
	for ch, inv := range b.inverse {
		inv.Unsample(b.back[ch][:n], b.mix[ch][:m])
		for j, v := range b.back[ch][:n] {
			out[ch][j] += v
		}
	}
}

// Reset clears every resampler.
func (b *Bridge) Reset() {
	if b.passthrough {
		return
	}
	b.clock.Reset()
	for _, fw := range b.forward {
		fw.Reset()
	}
	for _, inv := range b.inverse {
		inv.Reset()
	}
}

func sliceInputs(inputs [][]float64, start, end int, dst [][]float64) [][]float64 {
	out := dst[:0]
	for _, in := range inputs {
		if in == nil {
			out = append(out, nil)
			continue
		}
		out = append(out, in[start:end])
	}
	return out
}
