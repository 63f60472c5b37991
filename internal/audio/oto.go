package audio

import (
	"sync"

	"github.com/hajimehoshi/oto"
)

// OtoOutput pushes mono 16-bit blocks to an oto context. Player.Write blocks
// until the driver has room, which paces the caller.
type OtoOutput struct {
	bufferBlocks int

	mu      sync.Mutex
	ctx     *oto.Context
	player  *oto.Player
	raw     []byte
	stopped bool
}

// NewOtoOutput sizes the driver buffer to bufferBlocks blocks.
func NewOtoOutput(bufferBlocks int) *OtoOutput {
	if bufferBlocks < 1 {
		bufferBlocks = 1
	}
	return &OtoOutput{bufferBlocks: bufferBlocks}
}

func (o *OtoOutput) Open(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	const channelNum, bitDepthInBytes = 1, 2
	bufferSizeInBytes := cfg.BlockSize * bitDepthInBytes * o.bufferBlocks
	ctx, err := oto.NewContext(cfg.SampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ctx = ctx
	o.raw = make([]byte, cfg.BlockSize*bitDepthInBytes)
	return nil
}

func (o *OtoOutput) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctx == nil {
		return ErrNotOpen
	}
	o.player = o.ctx.NewPlayer()
	o.stopped = false
	return nil
}

func (o *OtoOutput) WriteBlock(src []int16) error {
	o.mu.Lock()
	p, stopped := o.player, o.stopped
	o.mu.Unlock()
	if p == nil {
		return ErrNotOpen
	}
	if stopped {
		return ErrStreamClosed
	}
	raw := o.raw[:len(src)*2]
	putInt16s(raw, src)
	_, err := p.Write(raw)
	return err
}

// Stop closes the player, which releases a Write blocked in the driver.
func (o *OtoOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil || o.stopped {
		return nil
	}
	o.stopped = true
	return o.player.Close()
}

func (o *OtoOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ctx == nil {
		return nil
	}
	err := o.ctx.Close()
	o.ctx = nil
	o.player = nil
	return err
}
