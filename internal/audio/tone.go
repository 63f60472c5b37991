package audio

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"
)

type Waveform int

const (
	WaveSine Waveform = iota
	WaveSquare
	WaveTriangle
	WaveSaw
	WaveImpulse // one full-scale sample per period
	WaveSilence
)

func ParseWaveform(name string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sine", "tone":
		return WaveSine, nil
	case "square":
		return WaveSquare, nil
	case "triangle":
		return WaveTriangle, nil
	case "saw":
		return WaveSaw, nil
	case "impulse", "click":
		return WaveImpulse, nil
	case "silence":
		return WaveSilence, nil
	default:
		return 0, fmt.Errorf("unknown waveform %q", name)
	}
}

// ToneConfig describes a test signal.
type ToneConfig struct {
	Wave      Waveform
	Freq      float64 // Hz
	Amplitude float64 // 0..1
	Paced     bool    // deliver blocks at the real-time block period
	Blocks    int     // blocks before io.EOF, 0 for endless
}

// ToneInput is an InputStream that synthesises its signal, for running a
// chain without a capture device.
type ToneInput struct {
	cfg        ToneConfig
	sampleRate float64
	period     time.Duration
	phase      float64
	emitted    int

	ticker  *time.Ticker
	stopped chan struct{}
	once    sync.Once
}

func NewToneInput(cfg ToneConfig) *ToneInput {
	return &ToneInput{cfg: cfg, stopped: make(chan struct{})}
}

func (t *ToneInput) Open(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	t.sampleRate = float64(cfg.SampleRate)
	t.period = time.Duration(float64(cfg.BlockSize) / t.sampleRate * float64(time.Second))
	return nil
}

func (t *ToneInput) Start() error {
	if t.sampleRate == 0 {
		return ErrNotOpen
	}
	if t.cfg.Paced {
		t.ticker = time.NewTicker(t.period)
	}
	return nil
}

func (t *ToneInput) ReadBlock(dst []int16) error {
	if t.cfg.Blocks > 0 && t.emitted >= t.cfg.Blocks {
		return io.EOF
	}
	if t.ticker != nil {
		select {
		case <-t.ticker.C:
		case <-t.stopped:
			return ErrStreamClosed
		}
	} else {
		select {
		case <-t.stopped:
			return ErrStreamClosed
		default:
		}
	}
	for i := range dst {
		dst[i] = FloatToInt16(t.next())
	}
	t.emitted++
	return nil
}

func (t *ToneInput) next() float64 {
	inc := t.cfg.Freq / t.sampleRate
	var v float64
	switch t.cfg.Wave {
	case WaveSine:
		v = math.Sin(2 * math.Pi * t.phase)
	case WaveSquare:
		if t.phase < 0.5 {
			v = 1
		} else {
			v = -1
		}
	case WaveTriangle:
		if t.phase < 0.5 {
			v = 4*t.phase - 1
		} else {
			v = 3 - 4*t.phase
		}
	case WaveSaw:
		v = 2*t.phase - 1
	case WaveImpulse:
		if t.phase < inc {
			v = 1
		}
	case WaveSilence:
		return 0
	}
	t.phase += inc
	for t.phase >= 1 {
		t.phase -= 1
	}
	return v * t.cfg.Amplitude
}

func (t *ToneInput) Stop() error {
	t.once.Do(func() {
		close(t.stopped)
		if t.ticker != nil {
			t.ticker.Stop()
		}
	})
	return nil
}

func (t *ToneInput) Close() error { return nil }
