package audio

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotOpen is returned when a stream is started or used before Open.
	ErrNotOpen = errors.New("stream not open")
	// ErrStreamClosed is returned by blocked or later reads and writes once
	// the stream has been stopped.
	ErrStreamClosed = errors.New("stream closed")
)

// Config is the device format: mono, 16-bit signed, fixed block size.
type Config struct {
	SampleRate int
	BlockSize  int
}

func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate %d must be positive", c.SampleRate)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block size %d must be positive", c.BlockSize)
	}
	return nil
}

// Stream is the lifecycle every device handle follows: Open, Start, Stop,
// Close. Stop must unblock any goroutine waiting in ReadBlock or WriteBlock.
type Stream interface {
	Open(cfg Config) error
	Start() error
	Stop() error
	Close() error
}

// InputStream fills dst with exactly one block. It returns io.EOF when the
// source is exhausted.
type InputStream interface {
	Stream
	ReadBlock(dst []int16) error
}

// OutputStream consumes one block. src is only borrowed for the call.
type OutputStream interface {
	Stream
	WriteBlock(src []int16) error
}

// blockQueue hands fixed-size blocks from a producer to a consumer through a
// fixed pool of buffers, so steady-state traffic never allocates.
type blockQueue struct {
	free chan []int16
	full chan []int16
	done chan struct{}
	once sync.Once
}

func newBlockQueue(blocks, size int) *blockQueue {
	q := &blockQueue{
		free: make(chan []int16, blocks),
		full: make(chan []int16, blocks),
		done: make(chan struct{}),
	}
	for i := 0; i < blocks; i++ {
		q.free <- make([]int16, size)
	}
	return q
}

// put copies src into a free buffer, waiting for one if the consumer is behind.
func (q *blockQueue) put(src []int16) error {
	select {
	case b := <-q.free:
		n := copy(b, src)
		clear(b[n:])
		q.full <- b
		return nil
	case <-q.done:
		return ErrStreamClosed
	}
}

func (q *blockQueue) tryGet() ([]int16, bool) {
	select {
	case b := <-q.full:
		return b, true
	default:
		return nil, false
	}
}

func (q *blockQueue) release(b []int16) {
	select {
	case q.free <- b:
	default:
	}
}

func (q *blockQueue) close() {
	q.once.Do(func() { close(q.done) })
}
