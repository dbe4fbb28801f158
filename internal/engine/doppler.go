package engine

import (
	"fmt"
	"math"
)

// DopplerLine delays a signal by the propagation time of a moving source.
//
// Samples are written at fractional positions that follow the delay
// trajectory and read back at a fixed rate, so a shrinking delay compresses
// the signal in time and raises its pitch. Every integer cell crossed between
// two consecutive write positions receives the linearly interpolated sample,
// which keeps the total deposited energy equal to the input energy.
type DopplerLine struct {
	sampleRate      float64
	speedOfSound    float64
	minSpeedOfSound float64
	maxDistance     float64
	maxBlockSize    int

	buf      []float64
	readPos  int
	maxDelay float64

	delayPrev  float64 // samples; dopplerUnanchored until the first block
	slopePrev  float64 // samples of delay change per output sample
	prevSample float64
	prevWrite  float64 // relative to readPos
}

// NewDopplerLine creates an unallocated delay line.
func NewDopplerLine(sampleRate, speedOfSound float64) *DopplerLine {
	return &DopplerLine{
		sampleRate:      sampleRate,
		speedOfSound:    speedOfSound,
		minSpeedOfSound: speedOfSound,
		delayPrev:       dopplerUnanchored,
	}
}

// Allocate sizes the buffer for sources up to maxDistance away, blocks of up
// to maxBlockSize samples and a speed of sound no lower than minSpeedOfSound.
// Pending content is preserved when the line grows. It must not be called
// from the realtime goroutine.
func (d *DopplerLine) Allocate(maxDistance float64, maxBlockSize int, minSpeedOfSound float64) error {
	if maxDistance <= 0 || math.IsNaN(maxDistance) || math.IsInf(maxDistance, 0) {
		return fmt.Errorf("max distance must be positive and finite: %f", maxDistance)
	}
	if maxBlockSize < 1 {
		return fmt.Errorf("max block size must be positive: %d", maxBlockSize)
	}
	if minSpeedOfSound <= 0 || math.IsNaN(minSpeedOfSound) {
		return fmt.Errorf("min speed of sound must be positive: %f", minSpeedOfSound)
	}

	d.maxDistance = maxDistance
	d.maxBlockSize = maxBlockSize
	d.minSpeedOfSound = minSpeedOfSound
	if d.speedOfSound < minSpeedOfSound {
		d.speedOfSound = minSpeedOfSound
	}

	delayCells := int(math.Ceil(maxDistance / minSpeedOfSound * d.sampleRate))
	size := maxBlockSize + delayCells + dopplerMargin
	if size > len(d.buf) {
		d.resize(size)
	}
	d.maxDelay = float64(len(d.buf) - maxBlockSize - dopplerMargin)

	return nil
}

// Grow reallocates the line so it can hold at least minDistance, doubling the
// current capacity when that is larger. Pending samples are kept in place
// relative to the read cursor.
func (d *DopplerLine) Grow(minDistance float64) error {
	target := math.Max(d.maxDistance*dopplerGrowthFactor, minDistance)
	return d.Allocate(target, d.maxBlockSize, d.minSpeedOfSound)
}

func (d *DopplerLine) resize(size int) {
	next := make([]float64, size)
	if n := len(d.buf); n > 0 {
		for i := range n {
			next[i] = d.buf[(d.readPos+i)%n]
		}
	}
	d.buf = next
	d.readPos = 0
}

// Allocated reports whether Allocate has succeeded.
func (d *DopplerLine) Allocated() bool {
	return len(d.buf) > 0
}

// MaxDistance returns the distance the line is currently sized for.
func (d *DopplerLine) MaxDistance() float64 {
	return d.maxDistance
}

// SetSpeedOfSound changes the propagation speed, clamped to the minimum the
// line was allocated for.
func (d *DopplerLine) SetSpeedOfSound(c float64) {
	if math.IsNaN(c) || c <= 0 {
		return
	}
	d.speedOfSound = math.Max(c, d.minSpeedOfSound)
}

// Delay converts a distance to a clamped delay in samples.
func (d *DopplerLine) Delay(distance float64) float64 {
	if math.IsNaN(distance) {
		return math.Max(d.delayPrev, 0)
	}
	delay := distance * d.sampleRate / d.speedOfSound
	return math.Max(0, math.Min(delay, d.maxDelay))
}

// Reset clears the buffer and forgets the trajectory; the next Process call
// anchors to its own target delay.
func (d *DopplerLine) Reset() {
	clear(d.buf)
	d.readPos = 0
	d.delayPrev = dopplerUnanchored
	d.slopePrev = 0
	d.prevSample = 0
	d.prevWrite = 0
}

// Process delays in by the propagation time to distance and writes len(in)
// samples to out. in and out may be the same slice. An unallocated line
// passes the signal through. Inputs longer than the allocated block size are
// processed in consecutive chunks.
func (d *DopplerLine) Process(distance float64, in, out []float64) {
	n := min(len(in), len(out))
	if len(d.buf) == 0 {
		copy(out[:n], in[:n])
		return
	}
	for n > d.maxBlockSize {
		d.process(distance, in[:d.maxBlockSize], out[:d.maxBlockSize])
		in, out = in[d.maxBlockSize:], out[d.maxBlockSize:]
		n -= d.maxBlockSize
	}
	if n > 0 {
		d.process(distance, in[:n], out[:n])
	}
}

func (d *DopplerLine) process(distance float64, in, out []float64) {
	n := len(in)

	target := d.Delay(distance)
	if d.delayPrev < 0 {
		d.delayPrev = target
		d.slopePrev = 0
		d.prevWrite = target - 1
		d.prevSample = 0
	}

	delta := target - d.delayPrev
	ratio := 0.0
	reversal := false
	if delta != 0 {
		ratio = d.slopePrev * float64(n) / delta
		reversal = ratio < 0
		ratio = math.Min(math.Max(ratio, 0), maxSlopeRatio)
	}

	size := len(d.buf)
	for j := range n {
		x := in[j]

		var g float64
		if delta != 0 {
			t := float64(j+1) / float64(n)
			if reversal {
				g = reversalCurve(t)
			} else {
				g = ratio*t + (1-ratio)*t*t
			}
		}

		w := float64(j) + d.delayPrev + delta*g
		d.deposit(d.prevWrite, w, d.prevSample, x, j)
		d.prevWrite = w
		d.prevSample = x

		cell := (d.readPos + j) % size
		out[j] = d.buf[cell]
		d.buf[cell] = 0
	}

	d.readPos = (d.readPos + n) % size
	d.prevWrite -= float64(n)
	d.delayPrev = target
	d.slopePrev = delta / float64(n)
}

// deposit spreads the segment from (a, xa) to (b, xb) over the integer cells
// it crosses. Cells are relative to the read cursor; cells before minCell
// have already been read and are skipped.
func (d *DopplerLine) deposit(a, b, xa, xb float64, minCell int) {
	size := len(d.buf)
	switch {
	case b > a:
		span := b - a
		first := max(int(math.Floor(a))+1, minCell)
		last := int(math.Floor(b))
		for c := first; c <= last; c++ {
			f := (float64(c) - a) / span
			d.buf[(d.readPos+c)%size] += xa*(1-f) + xb*f
		}
	case b < a:
		span := a - b
		first := max(int(math.Ceil(b)), minCell)
		last := int(math.Ceil(a)) - 1
		for c := first; c <= last; c++ {
			f := (a - float64(c)) / span
			d.buf[(d.readPos+c)%size] += xa*(1-f) + xb*f
		}
	}
}

// reversalCurve is the cubic Hermite from 0 to 1 with start slope 0 and end
// slope 1. It is monotone on [0, 1], so a delay that changes direction never
// overshoots the previous delay.
func reversalCurve(t float64) float64 {
	t2 := t * t
	return 2*t2 - t2*t
}
