package dsp

import (
	"errors"
	"fmt"
	"math"
)

// ErrConfiguration is matched by every ConfigError.
var ErrConfiguration = errors.New("invalid configuration")

// ErrUnknownParameter is wrapped when a parameter name is not in an effect's table.
var ErrUnknownParameter = errors.New("unknown parameter")

// ConfigError reports a rejected construction argument or parameter update.
type ConfigError struct {
	Component string
	Param     string
	Value     float64
	Reason    string
	Err       error
}

func (e *ConfigError) Error() string {
	msg := e.Component
	if e.Param != "" {
		msg += " " + e.Param
	}
	if e.Err != nil && errors.Is(e.Err, ErrUnknownParameter) {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	msg = fmt.Sprintf("%s=%g", msg, e.Value)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConfiguration) hold for any ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// Invalid builds a ConfigError for a rejected value.
func Invalid(component, param string, value float64, reason string) error {
	return &ConfigError{Component: component, Param: param, Value: value, Reason: reason}
}

// Unknown builds a ConfigError for a parameter name that does not exist.
func Unknown(component, param string) error {
	return &ConfigError{Component: component, Param: param, Err: ErrUnknownParameter}
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckSampleRate rejects non-positive or non-finite sample rates.
func CheckSampleRate(component string, sampleRate float64) error {
	if !Finite(sampleRate) || sampleRate <= 0 {
		return Invalid(component, "sampleRate", sampleRate, "must be positive")
	}
	return nil
}
