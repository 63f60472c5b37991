package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// Ebiten allows a single audio context per process.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// blockReader is the io.Reader ebiten pulls from. It upmixes queued mono
// blocks to interleaved stereo float32 and plays silence when none is ready.
type blockReader struct {
	q         *blockQueue
	cur       []int16
	pos       int
	underruns atomic.Int64
}

func (r *blockReader) Read(p []byte) (int, error) {
	frames := len(p) / 8
	for i := 0; i < frames; i++ {
		if r.cur == nil || r.pos >= len(r.cur) {
			if r.cur != nil {
				r.q.release(r.cur)
				r.cur = nil
			}
			b, ok := r.q.tryGet()
			if !ok {
				clear(p[i*8 : frames*8])
				r.underruns.Add(1)
				break
			}
			r.cur, r.pos = b, 0
		}
		u := math.Float32bits(float32(Int16ToFloat(r.cur[r.pos])))
		binary.LittleEndian.PutUint32(p[i*8:], u)
		binary.LittleEndian.PutUint32(p[i*8+4:], u)
		r.pos++
	}
	return frames * 8, nil
}

func (r *blockReader) Close() error { return nil }

// EbitenOutput plays through ebiten's audio package. WriteBlock blocks while
// every buffer in the pool is waiting to be played, which paces the caller to
// the device clock.
type EbitenOutput struct {
	blocks  int
	latency time.Duration
	q       *blockQueue
	reader  *blockReader
	player  *ebitaudio.Player
}

// NewEbitenOutput keeps blocks buffers in flight. latency, when non-zero,
// sets the player's internal buffer size.
func NewEbitenOutput(blocks int, latency time.Duration) *EbitenOutput {
	if blocks < 2 {
		blocks = 2
	}
	return &EbitenOutput{blocks: blocks, latency: latency}
}

func (o *EbitenOutput) Open(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, err := sharedAudioContext(cfg.SampleRate)
	if err != nil {
		return err
	}
	o.q = newBlockQueue(o.blocks, cfg.BlockSize)
	o.reader = &blockReader{q: o.q}
	pl, err := ctx.NewPlayerF32(o.reader)
	if err != nil {
		return err
	}
	if o.latency > 0 {
		pl.SetBufferSize(o.latency)
	}
	o.player = pl
	return nil
}

func (o *EbitenOutput) Start() error {
	if o.player == nil {
		return ErrNotOpen
	}
	o.player.Play()
	return nil
}

func (o *EbitenOutput) WriteBlock(src []int16) error {
	if o.q == nil {
		return ErrNotOpen
	}
	return o.q.put(src)
}

// Underruns counts pulls that found no block ready.
func (o *EbitenOutput) Underruns() int64 {
	if o.reader == nil {
		return 0
	}
	return o.reader.underruns.Load()
}

func (o *EbitenOutput) Stop() error {
	if o.player != nil {
		o.player.Pause()
	}
	if o.q != nil {
		o.q.close()
	}
	return nil
}

func (o *EbitenOutput) Close() error {
	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	return err
}
