package effects

import (
	"fmt"
	"strings"

	"github.com/cbegin/pedalfx-go/internal/dsp"
)

// Change applies an already validated parameter update. It is built on the
// control goroutine and run on the audio goroutine between blocks.
type Change func()

// Effect processes mono blocks in place.
//
// Process and Reset belong to the audio goroutine. Params, Param and Prepare
// belong to a single control goroutine; Prepare does all validation and
// allocation and returns a Change for the audio goroutine to apply.
type Effect interface {
	Process(block []float64)
	Reset()
	Params() []Param
	Param(name string) (float64, error)
	Prepare(name string, value float64) (Change, error)
}

// Grower is implemented by effects that keep per-block scratch space.
type Grower interface {
	Grow(maxBlock int)
}

// Set validates and applies an update immediately. Only safe when no other
// goroutine is processing e.
func Set(e Effect, name string, value float64) error {
	apply, err := e.Prepare(name, value)
	if err != nil {
		return err
	}
	apply()
	return nil
}

// Kind enumerates the effect variants.
type Kind int

const (
	KindDelay Kind = iota
	KindAnalogDelay
	KindDistortion
	KindGate
	KindHallReverb
	KindReverbPlate
)

var kindNames = [...]string{
	KindDelay:       "delay",
	KindAnalogDelay: "analogdelay",
	KindDistortion:  "distortion",
	KindGate:        "gate",
	KindHallReverb:  "hallreverb",
	KindReverbPlate: "reverbplate",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds lists every variant in declaration order.
func Kinds() []Kind {
	return []Kind{KindDelay, KindAnalogDelay, KindDistortion, KindGate, KindHallReverb, KindReverbPlate}
}

// ParseKind accepts the canonical names and a few short aliases.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "delay":
		return KindDelay, nil
	case "analogdelay", "analog-delay", "analog":
		return KindAnalogDelay, nil
	case "dist", "distortion":
		return KindDistortion, nil
	case "gate", "noisegate":
		return KindGate, nil
	case "hall", "hallreverb":
		return KindHallReverb, nil
	case "plate", "reverbplate":
		return KindReverbPlate, nil
	default:
		return 0, fmt.Errorf("unknown effect %q: %w", name, dsp.ErrConfiguration)
	}
}

// KindOf reports the variant of e. ok is false for effects defined outside
// this package.
func KindOf(e Effect) (Kind, bool) {
	switch e.(type) {
	case *Delay:
		return KindDelay, true
	case *AnalogDelay:
		return KindAnalogDelay, true
	case *Distortion:
		return KindDistortion, true
	case *Gate:
		return KindGate, true
	case *HallReverb:
		return KindHallReverb, true
	case *ReverbPlate:
		return KindReverbPlate, true
	default:
		return 0, false
	}
}

// New builds a variant with its default parameters.
func New(kind Kind, sampleRate float64) (Effect, error) {
	switch kind {
	case KindDelay:
		return NewDelay(sampleRate, 0.5, 0.5, 1.0)
	case KindAnalogDelay:
		return NewAnalogDelay(sampleRate, 0.5, 0.5, 0.5, DefaultAnalogCutoff(sampleRate))
	case KindDistortion:
		return NewDistortion(1.0)
	case KindGate:
		return NewGate(sampleRate, 0.1, 10, 100)
	case KindHallReverb:
		return NewHallReverb(sampleRate, DefaultHallConfig(sampleRate))
	case KindReverbPlate:
		return NewReverbPlate(sampleRate, DefaultPlateConfig(sampleRate))
	default:
		return nil, fmt.Errorf("effect kind %d: %w", int(kind), dsp.ErrConfiguration)
	}
}
