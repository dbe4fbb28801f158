package engine

import (
	"math"

	"github.com/tphakala/go-binaural/internal/simdops"
)

// History is a circular input history for FIR convolution. Every sample is
// written twice, at i and i+size, so the window of taps-1 past samples plus
// the current block is always one contiguous slice.
type History struct {
	buf  []float64
	size int
	pos  int
	taps int
}

// NewHistory creates a history for filters of the given length and blocks of
// up to maxBlockSize samples.
func NewHistory(taps, maxBlockSize int) *History {
	size := max(taps-1+maxBlockSize, 1)
	return &History{
		buf:  make([]float64, 2*size),
		size: size,
		taps: taps,
	}
}

// Push appends a block. The block must not exceed the configured maximum.
func (h *History) Push(in []float64) {
	for _, x := range in {
		h.buf[h.pos] = x
		h.buf[h.pos+h.size] = x
		h.pos++
		if h.pos == h.size {
			h.pos = 0
		}
	}
}

// Window returns the taps-1 samples preceding the last n pushed samples
// followed by those n samples. The slice aliases internal storage and is
// valid until the next Push.
func (h *History) Window(n int) []float64 {
	length := h.taps - 1 + n
	start := h.pos - length
	if start < 0 {
		start += h.size
	}
	return h.buf[start : start+length]
}

// Capacity returns the largest block Push and Window accept.
func (h *History) Capacity() int {
	return h.size - h.taps + 1
}

// Taps returns the filter length the history was sized for.
func (h *History) Taps() int {
	return h.taps
}

// Reset zeroes the history.
func (h *History) Reset() {
	clear(h.buf)
	h.pos = 0
}

// Convolve computes dst[j] = scale * Σ_k taps[k]·x[j-k] for j in [from, to),
// where window comes from History.Window and reversed holds the filter taps
// in reverse order. Non-finite results are replaced by zero.
func Convolve(dst, window, reversed []float64, from, to int, scale float64) {
	ops := simdops.Float64Ops()
	taps := len(reversed)
	for j := from; j < to; j++ {
		y := scale * ops.DotProductUnsafe(reversed, window[j:j+taps])
		if math.IsNaN(y) || math.IsInf(y, 0) {
			y = 0
		}
		dst[j] = y
	}
}

// Reverse writes src into dst in reverse order.
func Reverse(dst, src []float64) {
	n := len(src)
	for i, v := range src {
		dst[n-1-i] = v
	}
}
