package pedalfx

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	intaudio "github.com/cbegin/pedalfx-go/internal/audio"
	"github.com/cbegin/pedalfx-go/internal/dsp"
)

const (
	DefaultSampleRate = 44100
	DefaultBlockSize  = 1024
)

type (
	InputStream  = intaudio.InputStream
	OutputStream = intaudio.OutputStream
	StreamConfig = intaudio.Config
)

type SessionState int32

const (
	StateCreated SessionState = iota
	StateRunning
	StateStopped
)

func (s SessionState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("SessionState(%d)", int32(s))
	}
}

type SessionOption func(*sessionConfig)

type sessionConfig struct {
	sampleRate int
	blockSize  int
	logger     *log.Logger
	sampleTap  func([]float64)
	listening  bool
	muted      bool
	warnings   int
}

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		sampleRate: DefaultSampleRate,
		blockSize:  DefaultBlockSize,
		logger:     log.Default(),
		listening:  true,
		warnings:   16,
	}
}

func WithSampleRate(sampleRate int) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.sampleRate = sampleRate
	}
}

func WithBlockSize(frames int) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.blockSize = frames
	}
}

// WithLogger sets where device warnings are reported.
func WithLogger(logger *log.Logger) SessionOption {
	return func(cfg *sessionConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithSampleTap installs a callback invoked with each processed block, muted
// or not. The callback runs on the audio goroutine; keep work brief and
// non-blocking, and copy the block if it is kept.
func WithSampleTap(tap func([]float64)) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.sampleTap = tap
	}
}

func WithListening(enabled bool) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.listening = enabled
	}
}

func WithMuted(muted bool) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.muted = muted
	}
}

// Stats counts blocks since Start.
type Stats struct {
	Blocks       uint64 // processed through the chain
	Silent       uint64 // not written because muted or not listening
	Dropped      uint64 // failed to write
	LostWarnings uint64 // write failures not logged because the reporter was behind
}

// Session drives a Chain from an input stream to an output stream, one
// block at a time, on its own goroutine.
type Session struct {
	mu    sync.Mutex
	state SessionState
	cfg   sessionConfig
	chain *Chain
	in    InputStream
	out   OutputStream

	muted     atomic.Bool
	listening atomic.Bool

	raw []int16
	buf []float64

	stop       chan struct{}
	done       chan struct{}
	reportDone chan struct{}
	warnings   chan error
	loopErr    error

	blocks, silent, dropped, lost atomic.Uint64
}

func NewSession(chain *Chain, in InputStream, out OutputStream, opts ...SessionOption) (*Session, error) {
	if chain == nil || in == nil || out == nil {
		return nil, fmt.Errorf("session needs a chain and both streams: %w", ErrConfiguration)
	}
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sampleRate <= 0 {
		return nil, dsp.Invalid("session", "sampleRate", float64(cfg.sampleRate), "must be positive")
	}
	if cfg.blockSize <= 0 {
		return nil, dsp.Invalid("session", "blockSize", float64(cfg.blockSize), "must be positive")
	}
	s := &Session{
		cfg:   cfg,
		chain: chain,
		in:    in,
		out:   out,
		raw:   make([]int16, cfg.blockSize),
		buf:   make([]float64, cfg.blockSize),
	}
	s.muted.Store(cfg.muted)
	s.listening.Store(cfg.listening)
	return s, nil
}

func (s *Session) SampleRate() int { return s.cfg.sampleRate }
func (s *Session) BlockSize() int  { return s.cfg.blockSize }
func (s *Session) Chain() *Chain   { return s.chain }

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetMuted and SetListening take effect at the next block. Output is only
// written while listening and not muted; the chain runs either way.
func (s *Session) SetMuted(muted bool)         { s.muted.Store(muted) }
func (s *Session) Muted() bool                 { return s.muted.Load() }
func (s *Session) SetListening(listening bool) { s.listening.Store(listening) }
func (s *Session) Listening() bool             { return s.listening.Load() }

func (s *Session) Stats() Stats {
	return Stats{
		Blocks:       s.blocks.Load(),
		Silent:       s.silent.Load(),
		Dropped:      s.dropped.Load(),
		LostWarnings: s.lost.Load(),
	}
}

// Start opens and starts both streams and begins processing. On failure
// everything opened is closed again, the session stays Created, and the
// returned error is a *DeviceError.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCreated {
		return fmt.Errorf("start %s session: %w", s.state, ErrSessionState)
	}
	cfg := StreamConfig{SampleRate: s.cfg.sampleRate, BlockSize: s.cfg.blockSize}
	if err := s.in.Open(cfg); err != nil {
		return &DeviceError{Op: "open", Stream: "input", Err: err}
	}
	if err := s.out.Open(cfg); err != nil {
		s.in.Close()
		return &DeviceError{Op: "open", Stream: "output", Err: err}
	}
	if err := s.in.Start(); err != nil {
		s.closeStreams()
		return &DeviceError{Op: "start", Stream: "input", Err: err}
	}
	if err := s.out.Start(); err != nil {
		s.in.Stop()
		s.closeStreams()
		return &DeviceError{Op: "start", Stream: "output", Err: err}
	}
	s.chain.Reserve(s.cfg.blockSize)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.reportDone = make(chan struct{})
	s.warnings = make(chan error, s.cfg.warnings)
	s.loopErr = nil
	go s.report(s.warnings, s.reportDone)
	go s.loop()
	s.state = StateRunning
	return nil
}

func (s *Session) closeStreams() error {
	return errors.Join(s.in.Close(), s.out.Close())
}

func (s *Session) stopping() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

func (s *Session) loop() {
	defer close(s.done)
	for !s.stopping() {
		if err := s.in.ReadBlock(s.raw); err != nil {
			if !s.stopping() && !errors.Is(err, io.EOF) {
				s.loopErr = &DeviceError{Op: "read", Stream: "input", Err: err}
			}
			return
		}
		s.processBlock()
	}
}

// processBlock is the per-block callback. It must not block, allocate or log.
func (s *Session) processBlock() {
	write := s.listening.Load() && !s.muted.Load()
	for i, v := range s.raw {
		s.buf[i] = intaudio.Int16ToFloat(v)
	}
	s.chain.Process(s.buf)
	if s.cfg.sampleTap != nil {
		s.cfg.sampleTap(s.buf)
	}
	s.blocks.Add(1)
	if !write {
		s.silent.Add(1)
		return
	}
	for i, f := range s.buf {
		s.raw[i] = intaudio.FloatToInt16(f)
	}
	if err := s.writeBlock(); err != nil {
		if s.stopping() {
			return
		}
		s.dropped.Add(1)
		select {
		case s.warnings <- err:
		default:
			s.lost.Add(1)
		}
	}
}

// writeBlock hands the block to the output, turning a panicking backend
// into an ordinary write error.
func (s *Session) writeBlock() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("output panicked: %v", r)
		}
	}()
	return s.out.WriteBlock(s.raw)
}

func (s *Session) report(warnings <-chan error, done chan<- struct{}) {
	defer close(done)
	for err := range warnings {
		s.cfg.logger.Printf("%v: %v (block dropped)", ErrDeviceWrite, err)
	}
}

// Done is closed when processing ends, either after Stop or because the
// input ran out or failed. It is nil before Start.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Wait blocks until processing ends and returns the input error, if any.
// End of input is not an error. Streams stay open until Stop.
func (s *Session) Wait() error {
	done := s.Done()
	if done == nil {
		return fmt.Errorf("wait on %s session: %w", s.State(), ErrSessionState)
	}
	<-done
	return s.loopErr
}

// Stop ends processing and releases both streams. It returns once the last
// block has finished and both streams are closed. Stopping twice is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateStopped:
		return nil
	case StateCreated:
		s.state = StateStopped
		return nil
	}
	close(s.stop)
	stopErr := errors.Join(s.in.Stop(), s.out.Stop())
	<-s.done
	close(s.warnings)
	<-s.reportDone
	closeErr := s.closeStreams()
	s.state = StateStopped
	return errors.Join(stopErr, closeErr)
}
