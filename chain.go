package pedalfx

import (
	"fmt"
	"slices"
	"sync"

	intfx "github.com/cbegin/pedalfx-go/internal/effects"
)

// Chain applies a sequence of effects in order.
//
// Mutations come from a control goroutine and are queued; Process, on the
// audio goroutine, applies the queue at the start of a block. Process only
// ever try-locks, so a busy control side delays an update by one block
// instead of stalling audio.
type Chain struct {
	mu       sync.Mutex
	staged   []Effect // control view, replaced on every mutation
	pending  []intfx.Change
	maxBlock int

	live []Effect // audio view, owned by Process
}

func NewChain(effects ...Effect) *Chain {
	c := &Chain{staged: slices.Clone(effects)}
	c.live = c.staged
	return c
}

// Append adds e at the end of the chain.
func (c *Chain) Append(e Effect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := e.(intfx.Grower); ok && c.maxBlock > 0 && !slices.Contains(c.staged, e) {
		g.Grow(c.maxBlock)
	}
	next := make([]Effect, len(c.staged), len(c.staged)+1)
	copy(next, c.staged)
	c.publish(append(next, e))
}

// Remove drops the first occurrence of e and reports whether it was found.
func (c *Chain) Remove(e Effect) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.Index(c.staged, e)
	if i < 0 {
		return false
	}
	c.publish(slices.Delete(slices.Clone(c.staged), i, i+1))
	return true
}

// RemoveAt drops the effect at index i.
func (c *Chain) RemoveAt(i int) (Effect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.staged) {
		return nil, fmt.Errorf("chain index %d out of range [0, %d)", i, len(c.staged))
	}
	e := c.staged[i]
	c.publish(slices.Delete(slices.Clone(c.staged), i, i+1))
	return e, nil
}

// publish queues next as the chain the audio side will see. next must not
// be modified afterwards.
func (c *Chain) publish(next []Effect) {
	c.staged = next
	c.pending = append(c.pending, func() { c.live = next })
}

// Effects returns the effects in processing order, including queued changes.
func (c *Chain) Effects() []Effect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.staged)
}

func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.staged)
}

// At returns the effect at index i.
func (c *Chain) At(i int) (Effect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.staged) {
		return nil, fmt.Errorf("chain index %d out of range [0, %d)", i, len(c.staged))
	}
	return c.staged[i], nil
}

// SetParameter validates an update now and applies it at the next block
// boundary. A rejected update leaves the previous value in effect.
func (c *Chain) SetParameter(e Effect, name string, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !slices.Contains(c.staged, e) {
		return ErrNotInChain
	}
	apply, err := e.Prepare(name, value)
	if err != nil {
		return err
	}
	c.pending = append(c.pending, apply)
	return nil
}

// SetParameterAt is SetParameter addressed by chain position.
func (c *Chain) SetParameterAt(i int, name string, value float64) error {
	e, err := c.At(i)
	if err != nil {
		return err
	}
	return c.SetParameter(e, name, value)
}

// Reset clears the state of every effect at the next block boundary.
func (c *Chain) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, func() {
		for _, e := range c.live {
			e.Reset()
		}
	})
}

// Reserve sizes scratch space for blocks up to maxBlock samples. Call it
// while no goroutine is processing the chain.
func (c *Chain) Reserve(maxBlock int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxBlock = maxBlock
	for _, e := range c.staged {
		if g, ok := e.(intfx.Grower); ok {
			g.Grow(maxBlock)
		}
	}
}

// Process runs block through every effect in order. An empty chain leaves
// block untouched.
func (c *Chain) Process(block []float64) {
	c.applyPending()
	for _, e := range c.live {
		e.Process(block)
	}
}

func (c *Chain) applyPending() {
	if !c.mu.TryLock() {
		return
	}
	for i, apply := range c.pending {
		apply()
		c.pending[i] = nil
	}
	c.pending = c.pending[:0]
	c.mu.Unlock()
}
