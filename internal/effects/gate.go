package effects

import (
	"math"

	"github.com/cbegin/pedalfx-go/internal/dsp"
)

// Gate zeroes samples whose magnitude is below threshold and passes the rest
// untouched. attack and release are stored but only shape the output when
// smoothing is set to 1, in which case a gain envelope ramps between open and
// closed instead of switching per sample.
type Gate struct {
	*paramSet
	sampleRate float64
	threshold  float64
	smoothing  bool
	attackCoef float64
	relCoef    float64
	gain       float64 // envelope state, 0 closed .. 1 open
}

func NewGate(sampleRate, threshold, attackMs, releaseMs float64) (*Gate, error) {
	if err := dsp.CheckSampleRate("gate", sampleRate); err != nil {
		return nil, err
	}
	g := &Gate{
		paramSet: newParamSet("gate",
			Param{Name: "threshold", Min: 0, Max: unbounded, Default: 0.1},
			Param{Name: "attack", Unit: "ms", Min: 0, Max: 5000, Default: 10},
			Param{Name: "release", Unit: "ms", Min: 0, Max: 5000, Default: 100},
			Param{Name: "smoothing", Min: 0, Max: 1, Default: 0},
		),
		sampleRate: sampleRate,
	}
	if err := g.initAll(
		setting{"threshold", threshold},
		setting{"attack", attackMs},
		setting{"release", releaseMs},
	); err != nil {
		return nil, err
	}
	g.threshold = threshold
	g.attackCoef = envelopeCoef(attackMs, sampleRate)
	g.relCoef = envelopeCoef(releaseMs, sampleRate)
	return g, nil
}

// envelopeCoef is the per-sample step of a one-pole follower reaching ~63%
// of a jump after ms milliseconds. Zero means an immediate jump.
func envelopeCoef(ms, sampleRate float64) float64 {
	if ms <= 0 {
		return 1
	}
	return 1.0 - math.Exp(-1.0/(ms*sampleRate/1000.0))
}

func (g *Gate) Process(block []float64) {
	if !g.smoothing {
		for i, x := range block {
			if math.Abs(x) < g.threshold {
				block[i] = 0
			}
		}
		return
	}
	for i, x := range block {
		target := 0.0
		if math.Abs(x) >= g.threshold {
			target = 1
		}
		if target > g.gain {
			g.gain += g.attackCoef * (target - g.gain)
		} else {
			g.gain += g.relCoef * (target - g.gain)
		}
		block[i] = x * g.gain
	}
}

func (g *Gate) Reset() {
	g.gain = 0
}

func (g *Gate) Prepare(name string, value float64) (Change, error) {
	if err := g.validate(name, value); err != nil {
		return nil, err
	}
	var apply Change
	switch name {
	case "threshold":
		apply = func() { g.threshold = value }
	case "attack":
		coef := envelopeCoef(value, g.sampleRate)
		apply = func() { g.attackCoef = coef }
	case "release":
		coef := envelopeCoef(value, g.sampleRate)
		apply = func() { g.relCoef = coef }
	case "smoothing":
		if value != 0 && value != 1 {
			return nil, dsp.Invalid("gate", name, value, "must be 0 or 1")
		}
		on := value == 1
		apply = func() {
			if on && !g.smoothing {
				g.gain = 0
			}
			g.smoothing = on
		}
	}
	g.commit(name, value)
	return apply, nil
}
