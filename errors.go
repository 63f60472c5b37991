package pedalfx

import (
	"errors"
	"fmt"

	"github.com/cbegin/pedalfx-go/internal/dsp"
)

var (
	// ErrConfiguration matches every rejected parameter or option.
	ErrConfiguration = dsp.ErrConfiguration
	// ErrUnknownParameter is wrapped when a name is not in an effect's table.
	ErrUnknownParameter = dsp.ErrUnknownParameter
	// ErrDevice matches every DeviceError.
	ErrDevice = errors.New("audio device error")
	// ErrDeviceWrite wraps output failures reported as warnings while running.
	ErrDeviceWrite = errors.New("device write warning")
	// ErrSessionState is returned when an operation does not fit the session's state.
	ErrSessionState = errors.New("invalid session state")
	// ErrNotInChain is returned for parameter updates on effects the chain does not hold.
	ErrNotInChain = errors.New("effect not in chain")
)

// ConfigError describes a rejected value; see dsp.ConfigError.
type ConfigError = dsp.ConfigError

// DeviceError reports a stream that failed to open, start or deliver input.
type DeviceError struct {
	Op     string // open, start, read
	Stream string // input or output
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s stream %s: %v", e.Stream, e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

func (e *DeviceError) Is(target error) bool {
	return target == ErrDevice
}
