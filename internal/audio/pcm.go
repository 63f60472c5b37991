package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
)

// Int16ToFloat maps a device sample to [-1, 1).
func Int16ToFloat(v int16) float64 {
	return float64(v) / 32768.0
}

// FloatToInt16 is the inverse of Int16ToFloat, rounded and saturated.
func FloatToInt16(f float64) int16 {
	if math.IsNaN(f) {
		return 0
	}
	v := math.Round(f * 32768.0)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

func putInt16s(dst []byte, src []int16) {
	for i, v := range src {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(v))
	}
}

func getInt16s(dst []int16, src []byte) {
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*2:]))
	}
}

// ReaderInput reads raw mono s16le from an io.Reader, e.g. a pipe from
// `arecord -f S16_LE -c 1`. A background goroutine does the reads so that
// Stop never waits on the reader.
//
// Each Open starts a fresh run with its own queue. Close is final: it closes
// r when r is an io.Closer, and a later Open returns ErrStreamClosed.
type ReaderInput struct {
	r      io.Reader
	blocks int

	mu     sync.Mutex
	closed bool
	run    atomic.Pointer[readerRun]
}

// readerRun is the state of one Open..Stop cycle. The pump goroutine only
// ever touches the run it was started with.
type readerRun struct {
	size    int
	q       *blockQueue
	ended   chan struct{}
	err     error // set before ended is closed
	started bool
}

// NewReaderInput buffers up to blocks blocks ahead of the consumer.
func NewReaderInput(r io.Reader, blocks int) *ReaderInput {
	if blocks < 2 {
		blocks = 2
	}
	return &ReaderInput{r: r, blocks: blocks}
}

func (in *ReaderInput) Open(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return ErrStreamClosed
	}
	if old := in.run.Load(); old != nil {
		old.q.close()
	}
	in.run.Store(&readerRun{
		size:  cfg.BlockSize,
		q:     newBlockQueue(in.blocks, cfg.BlockSize),
		ended: make(chan struct{}),
	})
	return nil
}

func (in *ReaderInput) Start() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return ErrStreamClosed
	}
	run := in.run.Load()
	if run == nil {
		return ErrNotOpen
	}
	if !run.started {
		run.started = true
		go in.pump(run)
	}
	return nil
}

func (in *ReaderInput) pump(run *readerRun) {
	raw := make([]byte, run.size*2)
	block := make([]int16, run.size)
	for {
		n, err := io.ReadFull(in.r, raw)
		if n > 0 {
			frames := n / 2
			getInt16s(block[:frames], raw[:frames*2])
			clear(block[frames:])
			if run.q.put(block) != nil {
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				err = io.EOF
			}
			run.err = err
			close(run.ended)
			return
		}
	}
}

func (in *ReaderInput) ReadBlock(dst []int16) error {
	run := in.run.Load()
	if run == nil {
		return ErrNotOpen
	}
	select {
	case b := <-run.q.full:
		copy(dst, b)
		run.q.release(b)
		return nil
	case <-run.ended:
		// Blocks queued before the end are still delivered.
		if b, ok := run.q.tryGet(); ok {
			copy(dst, b)
			run.q.release(b)
			return nil
		}
		return run.err
	case <-run.q.done:
		return ErrStreamClosed
	}
}

func (in *ReaderInput) Stop() error {
	if run := in.run.Load(); run != nil {
		run.q.close()
	}
	return nil
}

func (in *ReaderInput) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}
	in.closed = true
	if run := in.run.Load(); run != nil {
		run.q.close()
	}
	if c, ok := in.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// WriterOutput writes raw mono s16le to an io.Writer such as `aplay` stdin.
type WriterOutput struct {
	w       io.Writer
	raw     []byte
	stopped chan struct{}
	once    sync.Once
}

func NewWriterOutput(w io.Writer) *WriterOutput {
	return &WriterOutput{w: w, stopped: make(chan struct{})}
}

func (out *WriterOutput) Open(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	out.raw = make([]byte, cfg.BlockSize*2)
	return nil
}

func (out *WriterOutput) Start() error {
	if out.raw == nil {
		return ErrNotOpen
	}
	return nil
}

func (out *WriterOutput) WriteBlock(src []int16) error {
	select {
	case <-out.stopped:
		return ErrStreamClosed
	default:
	}
	raw := out.raw[:len(src)*2]
	putInt16s(raw, src)
	_, err := out.w.Write(raw)
	return err
}

func (out *WriterOutput) Stop() error {
	out.once.Do(func() { close(out.stopped) })
	return nil
}

func (out *WriterOutput) Close() error {
	if c, ok := out.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
