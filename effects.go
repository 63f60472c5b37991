package pedalfx

import (
	"fmt"
	"strconv"
	"strings"

	intfx "github.com/cbegin/pedalfx-go/internal/effects"
)

type (
	Effect       = intfx.Effect
	Param        = intfx.Param
	Kind         = intfx.Kind
	ReverbConfig = intfx.ReverbConfig

	Delay       = intfx.Delay
	AnalogDelay = intfx.AnalogDelay
	Distortion  = intfx.Distortion
	Gate        = intfx.Gate
	HallReverb  = intfx.HallReverb
	ReverbPlate = intfx.ReverbPlate
)

const (
	KindDelay       = intfx.KindDelay
	KindAnalogDelay = intfx.KindAnalogDelay
	KindDistortion  = intfx.KindDistortion
	KindGate        = intfx.KindGate
	KindHallReverb  = intfx.KindHallReverb
	KindReverbPlate = intfx.KindReverbPlate
)

func Kinds() []Kind                          { return intfx.Kinds() }
func ParseKind(name string) (Kind, error)    { return intfx.ParseKind(name) }
func KindOf(e Effect) (Kind, bool)           { return intfx.KindOf(e) }
func DefaultHallConfig(sr float64) ReverbConfig  { return intfx.DefaultHallConfig(sr) }
func DefaultPlateConfig(sr float64) ReverbConfig { return intfx.DefaultPlateConfig(sr) }
func DefaultAnalogCutoff(sr float64) float64     { return intfx.DefaultAnalogCutoff(sr) }

// NewEffect builds kind with its default parameters.
func NewEffect(kind Kind, sampleRate float64) (Effect, error) {
	return intfx.New(kind, sampleRate)
}

func NewDelay(sampleRate, delayTime, feedback, mix float64) (*Delay, error) {
	return intfx.NewDelay(sampleRate, delayTime, feedback, mix)
}

func NewAnalogDelay(sampleRate, delayTime, feedback, mix, cutoff float64) (*AnalogDelay, error) {
	return intfx.NewAnalogDelay(sampleRate, delayTime, feedback, mix, cutoff)
}

func NewDistortion(gain float64) (*Distortion, error) {
	return intfx.NewDistortion(gain)
}

func NewGate(sampleRate, threshold, attackMs, releaseMs float64) (*Gate, error) {
	return intfx.NewGate(sampleRate, threshold, attackMs, releaseMs)
}

func NewHallReverb(sampleRate float64, cfg ReverbConfig) (*HallReverb, error) {
	return intfx.NewHallReverb(sampleRate, cfg)
}

func NewReverbPlate(sampleRate float64, cfg ReverbConfig) (*ReverbPlate, error) {
	return intfx.NewReverbPlate(sampleRate, cfg)
}

// SetParameter validates and applies an update immediately. Use
// Chain.SetParameter for effects a running session is processing.
func SetParameter(e Effect, name string, value float64) error {
	return intfx.Set(e, name, value)
}

// ParseEffect builds an effect from a definition such as
// "plate mix=0.3 decay=1.5". Parameters not named keep their defaults.
func ParseEffect(def string, sampleRate float64) (Effect, error) {
	fields := strings.Fields(def)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty effect definition: %w", ErrConfiguration)
	}
	kind, err := ParseKind(fields[0])
	if err != nil {
		return nil, err
	}
	e, err := NewEffect(kind, sampleRate)
	if err != nil {
		return nil, err
	}
	for _, kv := range fields[1:] {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("%s: expected name=value, got %q: %w", kind, kv, ErrConfiguration)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s %s=%q: not a number: %w", kind, name, raw, ErrConfiguration)
		}
		if err := SetParameter(e, name, v); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// DescribeEffect formats an effect back into ParseEffect's syntax.
func DescribeEffect(e Effect) string {
	var b strings.Builder
	if kind, ok := KindOf(e); ok {
		b.WriteString(kind.String())
	} else {
		fmt.Fprintf(&b, "%T", e)
	}
	for _, p := range e.Params() {
		fmt.Fprintf(&b, " %s=%s", p.Name, strconv.FormatFloat(p.Value, 'g', -1, 64))
	}
	return b.String()
}
