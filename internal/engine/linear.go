// Package engine implements the sample-level DSP blocks of the renderer:
// the linear multi-rate resampler, the Doppler fractional delay line and the
// circular-history FIR convolver.
package engine

import (
	"fmt"
	"math"
)

// Direction selects which side of a Resampler has a fixed block length.
type Direction int

const (
	// Forward consumes a fixed number of input samples per call and emits
	// ⌊N_out⌋ or ⌈N_out⌉ samples.
	Forward Direction = iota

	// Inverse emits a fixed number of output samples per call from a
	// variable-length input, undoing a paired Forward resampler.
	Inverse
)

// Resampler converts between two sample rates with linear interpolation.
//
// Output sample n of a call lies at time offset + n/fs_out, measured from the
// last input sample of the previous call. The fractional remainder is carried
// in offset, so the emitted length of a Forward resampler alternates between
// ⌊N_out⌋ and ⌈N_out⌉ while the long-run count tracks N_in·fs_out/fs_in.
//
// A Resampler never allocates after construction and is not safe for
// concurrent use.
type Resampler struct {
	inputRate  float64
	outputRate float64
	inPeriod   float64
	outPeriod  float64

	direction Direction
	blockLen  int     // N_in for Forward, N_out for Inverse
	nominal   float64 // fractional N_out for Forward, N_in for Inverse

	offset      float64
	prev1       float64 // input sample at index -1
	prev2       float64 // input sample at index -2
	shortBuffer bool
}

// NewResampler creates a resampler from inputRate to outputRate.
//
// For Forward, blockLen is the number of input samples passed to each
// Resample call. For Inverse it is the number of output samples produced by
// each Unsample call. A block must span at least one sample period of the
// other side, otherwise there would be nothing to interpolate from.
func NewResampler(inputRate, outputRate float64, blockLen int, direction Direction) (*Resampler, error) {
	if inputRate <= 0 || outputRate <= 0 || math.IsNaN(inputRate) || math.IsNaN(outputRate) {
		return nil, fmt.Errorf("sample rates must be positive: input=%f, output=%f", inputRate, outputRate)
	}
	if blockLen < 1 {
		return nil, fmt.Errorf("block length must be positive: %d", blockLen)
	}

	r := &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		inPeriod:   1 / inputRate,
		outPeriod:  1 / outputRate,
		direction:  direction,
		blockLen:   blockLen,
	}

	switch direction {
	case Forward:
		if float64(blockLen)*r.inPeriod < r.outPeriod {
			return nil, fmt.Errorf("block of %d input samples is shorter than one output period", blockLen)
		}
		r.nominal = float64(blockLen) * outputRate / inputRate
	case Inverse:
		if float64(blockLen)*r.outPeriod < r.inPeriod {
			return nil, fmt.Errorf("block of %d output samples is shorter than one input period", blockLen)
		}
		r.nominal = float64(blockLen) * inputRate / outputRate
	default:
		return nil, fmt.Errorf("unknown direction %d", direction)
	}

	return r, nil
}

// Resample interpolates in into dst and returns the number of samples written.
// dst must hold at least MaxOutputLen samples.
func (r *Resampler) Resample(dst, in []float64) int {
	if len(in) == 0 {
		return 0
	}

	span := float64(len(in)) * r.inPeriod
	n := 0
	t := r.offset
	for t < span && n < len(dst) {
		dst[n] = r.interpolate(in, t*r.inputRate-1)
		n++
		t = r.offset + float64(n)*r.outPeriod
	}

	// t >= span unless dst ran out, in which case the lost samples are dropped.
	r.offset = math.Max(t-span, 0)
	r.shortBuffer = float64(n) < math.Ceil(r.nominal)
	r.remember(in)

	return n
}

// Unsample writes BlockLen samples, or len(dst) if that is shorter, into dst
// from a variable-length input, typically the output of a paired Forward
// resampler running the opposite conversion. Positions that fall outside the available input hold
// the nearest sample, and the running offset is kept within one input period
// so a mismatched producer cannot make it drift without bound.
func (r *Resampler) Unsample(dst, in []float64) int {
	n := min(r.blockLen, len(dst))

	for i := range n {
		t := r.offset + float64(i)*r.outPeriod
		dst[i] = r.interpolate(in, t*r.inputRate-1)
	}

	span := float64(len(in)) * r.inPeriod
	r.offset += float64(n)*r.outPeriod - span
	r.offset = math.Max(-r.inPeriod, math.Min(r.offset, r.inPeriod))
	r.shortBuffer = float64(len(in)) < math.Floor(r.nominal)
	r.remember(in)

	return n
}

// interpolate evaluates the signal at fractional input position pos, where
// -1 and -2 address the samples carried over from the previous call.
func (r *Resampler) interpolate(in []float64, pos float64) float64 {
	base := math.Floor(pos)
	frac := pos - base
	i := int(base)

	a := r.sampleAt(in, i)
	if frac == 0 {
		return a
	}
	b := r.sampleAt(in, i+1)
	return a*(1-frac) + b*frac
}

func (r *Resampler) sampleAt(in []float64, i int) float64 {
	switch {
	case i >= len(in):
		if len(in) == 0 {
			return r.prev1
		}
		return in[len(in)-1]
	case i >= 0:
		return in[i]
	case i == historyPrev1:
		return r.prev1
	case i == historyPrev2:
		return r.prev2
	default:
		return r.prev2
	}
}

func (r *Resampler) remember(in []float64) {
	switch len(in) {
	case 0:
	case 1:
		r.prev2, r.prev1 = r.prev1, in[0]
	default:
		r.prev2, r.prev1 = in[len(in)-2], in[len(in)-1]
	}
}

// Reset clears the carried samples and the running offset.
func (r *Resampler) Reset() {
	r.offset = 0
	r.prev1 = 0
	r.prev2 = 0
	r.shortBuffer = false
}

// OutputLen returns the fractional length of the variable side per call:
// N_out for Forward, N_in for Inverse.
func (r *Resampler) OutputLen() float64 {
	return r.nominal
}

// BlockLen returns the fixed side of the conversion: N_in for Forward,
// N_out for Inverse.
func (r *Resampler) BlockLen() int {
	return r.blockLen
}

// MaxOutputLen returns the largest number of samples a call may write.
func (r *Resampler) MaxOutputLen() int {
	if r.direction == Inverse {
		return r.blockLen
	}
	return int(math.Ceil(r.nominal)) + resampleLenMargin
}

// MaxInputLen returns the largest input a call should be given.
func (r *Resampler) MaxInputLen() int {
	if r.direction == Forward {
		return r.blockLen
	}
	return int(math.Ceil(r.nominal)) + resampleLenMargin
}

// ShortBuffer reports whether the most recent call emitted (Forward) or
// received (Inverse) one sample fewer than the rounded-up nominal length.
func (r *Resampler) ShortBuffer() bool {
	return r.shortBuffer
}

// Offset returns the running time offset in seconds.
func (r *Resampler) Offset() float64 {
	return r.offset
}

// Ratio returns outputRate / inputRate.
func (r *Resampler) Ratio() float64 {
	return r.outputRate / r.inputRate
}

// Direction returns the configured direction.
func (r *Resampler) Direction() Direction {
	return r.direction
}
