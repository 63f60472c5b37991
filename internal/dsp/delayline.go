package dsp

import "math"

// DelaySamples converts seconds to a buffer length: round(seconds*sampleRate), at least 1.
func DelaySamples(seconds, sampleRate float64) int {
	n := int(math.Round(seconds * sampleRate))
	if n < 1 {
		n = 1
	}
	return n
}

// DelayLine is a circular buffer with a single read/write cursor. The sample
// under the cursor is the one written len(buf) samples ago.
type DelayLine struct {
	buf []float64
	pos int
}

func NewDelayLine(samples int) *DelayLine {
	if samples < 1 {
		samples = 1
	}
	return &DelayLine{buf: make([]float64, samples)}
}

func (d *DelayLine) Len() int { return len(d.buf) }

// Current returns the sample at the cursor.
func (d *DelayLine) Current() float64 {
	return d.buf[d.pos]
}

// Advance stores v at the cursor and moves the cursor forward.
func (d *DelayLine) Advance(v float64) {
	d.buf[d.pos] = v
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
}

// Tick writes in and returns the sample it replaced.
func (d *DelayLine) Tick(in float64) float64 {
	out := d.buf[d.pos]
	d.Advance(in)
	return out
}

// Tap returns the sample written delay samples before the next write.
// delay is clamped to [1, Len()].
func (d *DelayLine) Tap(delay int) float64 {
	if delay < 1 {
		delay = 1
	}
	if delay > len(d.buf) {
		delay = len(d.buf)
	}
	i := d.pos - delay
	if i < 0 {
		i += len(d.buf)
	}
	return d.buf[i]
}

// Swap replaces the storage with buf, which must be zeroed and non-empty,
// and rewinds the cursor. Previous contents are discarded.
func (d *DelayLine) Swap(buf []float64) {
	d.buf = buf
	d.pos = 0
}

func (d *DelayLine) Reset() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.pos = 0
}
