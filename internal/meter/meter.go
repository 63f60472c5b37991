package meter

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Floor is the level reported for silence, in dBFS.
const Floor = -120.0

var ErrNotEnoughSamples = errors.New("not enough samples for analysis")

// Levels are the peak and RMS of everything tapped since the previous call.
type Levels struct {
	Peak    float64
	RMS     float64
	Samples int
}

func (l Levels) PeakDB() float64 { return ToDB(l.Peak) }
func (l Levels) RMSDB() float64  { return ToDB(l.RMS) }

// ToDB converts a linear amplitude to dBFS, clamped at Floor.
func ToDB(v float64) float64 {
	if v <= 0 {
		return Floor
	}
	return math.Max(Floor, 20*math.Log10(v))
}

// Meter collects processed audio for level and spectrum readouts.
type Meter struct {
	sampleRate float64

	mu     sync.Mutex
	ring   []float64
	pos    int
	filled int
	peak   float64
	sumSq  float64
	count  int

	skipped atomic.Uint64

	// analysis scratch, guarded by specMu
	specMu sync.Mutex
	size   int
	plan   *algofft.Plan[complex128]
	window []float64
	gain   float64
	frame  []float64
	in     []complex128
	out    []complex128
	re, im []float64
	mag    []float64
}

// New creates a meter whose spectrum uses fftSize points. The ring keeps
// ringLen samples for Snapshot and must hold at least fftSize.
func New(sampleRate float64, fftSize, ringLen int) (*Meter, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("meter sample rate %g must be positive", sampleRate)
	}
	if fftSize < 16 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("meter fft size %d must be a power of two >= 16", fftSize)
	}
	if ringLen < fftSize {
		ringLen = fftSize
	}
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("meter fft plan: %w", err)
	}
	bins := fftSize/2 + 1
	m := &Meter{
		sampleRate: sampleRate,
		ring:       make([]float64, ringLen),
		size:       fftSize,
		plan:       plan,
		window:     hann(fftSize),
		frame:      make([]float64, fftSize),
		in:         make([]complex128, fftSize),
		out:        make([]complex128, fftSize),
		re:         make([]float64, bins),
		im:         make([]float64, bins),
		mag:        make([]float64, bins),
	}
	var sum float64
	for _, w := range m.window {
		sum += w
	}
	m.gain = 2 / sum
	return m, nil
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}

// Tap records a processed block. It runs on the audio goroutine and gives up
// rather than wait if a reader holds the lock.
func (m *Meter) Tap(block []float64) {
	if !m.mu.TryLock() {
		m.skipped.Add(1)
		return
	}
	for _, v := range block {
		m.ring[m.pos] = v
		m.pos++
		if m.pos == len(m.ring) {
			m.pos = 0
		}
		a := math.Abs(v)
		if a > m.peak {
			m.peak = a
		}
		m.sumSq += v * v
	}
	m.count += len(block)
	m.filled = min(m.filled+len(block), len(m.ring))
	m.mu.Unlock()
}

// Skipped counts blocks dropped because the meter was busy.
func (m *Meter) Skipped() uint64 { return m.skipped.Load() }

// Levels returns and resets the running peak and RMS.
func (m *Meter) Levels() Levels {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := Levels{Peak: m.peak, Samples: m.count}
	if m.count > 0 {
		l.RMS = math.Sqrt(m.sumSq / float64(m.count))
	}
	m.peak, m.sumSq, m.count = 0, 0, 0
	return l
}

// Snapshot copies the newest len(dst) samples, oldest first, and returns how
// many were available.
func (m *Meter) Snapshot(dst []float64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := min(len(dst), m.filled)
	start := m.pos - n
	if start < 0 {
		start += len(m.ring)
	}
	for i := 0; i < n; i++ {
		dst[i] = m.ring[(start+i)%len(m.ring)]
	}
	return n
}

// Spectrum returns the Hann-windowed magnitude of the newest FFT frame, one
// value per bin from DC to Nyquist, scaled so a full-scale sine reads ~1.
// The returned slice is reused by the next call.
func (m *Meter) Spectrum() ([]float64, error) {
	m.specMu.Lock()
	defer m.specMu.Unlock()
	if m.Snapshot(m.frame) < m.size {
		return nil, ErrNotEnoughSamples
	}
	vecmath.MulBlockInPlace(m.frame, m.window)
	for i, v := range m.frame {
		m.in[i] = complex(v, 0)
	}
	if err := m.plan.Forward(m.out, m.in); err != nil {
		return nil, fmt.Errorf("meter fft: %w", err)
	}
	for i := range m.re {
		m.re[i] = real(m.out[i])
		m.im[i] = imag(m.out[i])
	}
	vecmath.Magnitude(m.mag, m.re, m.im)
	for i := range m.mag {
		m.mag[i] *= m.gain
	}
	return m.mag, nil
}

// BinFrequency is the centre frequency of spectrum bin i.
func (m *Meter) BinFrequency(i int) float64 {
	return float64(i) * m.sampleRate / float64(m.size)
}

// PeakFrequency returns the frequency and magnitude of the loudest bin above DC.
func (m *Meter) PeakFrequency() (float64, float64, error) {
	mag, err := m.Spectrum()
	if err != nil {
		return 0, 0, err
	}
	best := 1
	for i := 2; i < len(mag); i++ {
		if mag[i] > mag[best] {
			best = i
		}
	}
	return m.BinFrequency(best), mag[best], nil
}
