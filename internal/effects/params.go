package effects

import (
	"fmt"
	"math"

	"github.com/cbegin/pedalfx-go/internal/dsp"
)

// Param describes one entry of an effect's parameter table. Value is the
// most recently accepted setting.
type Param struct {
	Name    string
	Unit    string
	Min     float64
	Max     float64
	MinOpen bool // Min itself is excluded
	MaxOpen bool // Max itself is excluded
	Default float64
	Value   float64
}

// Contains reports whether v is finite and inside the parameter's range.
func (p Param) Contains(v float64) bool {
	if !dsp.Finite(v) {
		return false
	}
	if v < p.Min || (p.MinOpen && v == p.Min) {
		return false
	}
	if v > p.Max || (p.MaxOpen && v == p.Max) {
		return false
	}
	return true
}

// Range formats the accepted interval, e.g. "(0, 1)".
func (p Param) Range() string {
	lo, hi := "[", "]"
	if p.MinOpen {
		lo = "("
	}
	if p.MaxOpen {
		hi = ")"
	}
	return fmt.Sprintf("%s%g, %g%s", lo, p.Min, p.Max, hi)
}

func (p Param) check(component string, v float64) error {
	if !dsp.Finite(v) {
		return dsp.Invalid(component, p.Name, v, "must be finite")
	}
	if !p.Contains(v) {
		return dsp.Invalid(component, p.Name, v, "out of range "+p.Range())
	}
	return nil
}

// paramSet is the control-side view of an effect's parameters. It is only
// touched from the goroutine issuing updates, never from Process.
type paramSet struct {
	component string
	table     []Param
}

func newParamSet(component string, table ...Param) *paramSet {
	for i := range table {
		table[i].Value = table[i].Default
	}
	return &paramSet{component: component, table: table}
}

func (s *paramSet) index(name string) (int, error) {
	for i := range s.table {
		if s.table[i].Name == name {
			return i, nil
		}
	}
	return -1, dsp.Unknown(s.component, name)
}

func (s *paramSet) Params() []Param {
	out := make([]Param, len(s.table))
	copy(out, s.table)
	return out
}

func (s *paramSet) Param(name string) (float64, error) {
	i, err := s.index(name)
	if err != nil {
		return 0, err
	}
	return s.table[i].Value, nil
}

// validate checks v against the named entry without recording it.
func (s *paramSet) validate(name string, v float64) error {
	i, err := s.index(name)
	if err != nil {
		return err
	}
	return s.table[i].check(s.component, v)
}

// init records a construction-time value after validating it.
func (s *paramSet) init(name string, v float64) error {
	if err := s.validate(name, v); err != nil {
		return err
	}
	s.commit(name, v)
	return nil
}

type setting struct {
	name  string
	value float64
}

// initAll validates and records settings in order, stopping at the first error.
func (s *paramSet) initAll(settings ...setting) error {
	for _, st := range settings {
		if err := s.init(st.name, st.value); err != nil {
			return err
		}
	}
	return nil
}

func (s *paramSet) commit(name string, v float64) {
	i, _ := s.index(name)
	s.table[i].Value = v
}

func (s *paramSet) value(name string) float64 {
	v, _ := s.Param(name)
	return v
}

// Shared table entries.

func mixParam(def float64) Param {
	return Param{Name: "mix", Min: 0, Max: 1, Default: def}
}

func volumeParam() Param {
	return Param{Name: "volume", Min: 0, Max: 10, Default: 1}
}

func decayParam(def float64) Param {
	return Param{Name: "decay", Unit: "s", Min: 0, Max: 60, Default: def}
}

func preDelayParam(def float64) Param {
	return Param{Name: "preDelay", Unit: "s", Min: 0, Max: 2, Default: def}
}

func cutoffParam(name string, def, sampleRate float64) Param {
	return Param{Name: name, Unit: "Hz", Min: 0, MinOpen: true, Max: sampleRate / 2, MaxOpen: true, Default: def}
}

func delayTimeParam() Param {
	return Param{Name: "delayTime", Unit: "s", Min: 0, MinOpen: true, Max: 10, Default: 0.5}
}

func feedbackParam() Param {
	return Param{Name: "feedback", Min: -1, MinOpen: true, Max: 1, MaxOpen: true, Default: 0.5}
}

var unbounded = math.Inf(1)
