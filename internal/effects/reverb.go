package effects

import (
	"math"

	"github.com/cbegin/pedalfx-go/internal/dsp"
)

// Schroeder plate topology. The delays are fixed; only decay moves the comb
// feedback.
var (
	plateCombDelays    = [4]float64{0.0297, 0.0371, 0.0411, 0.0437}
	plateAllpassDelays = [2]float64{0.005, 0.0017}
)

const plateAllpassFeedback = 0.7

// ReverbConfig holds the parameters shared by HallReverb and ReverbPlate.
type ReverbConfig struct {
	Mix      float64 // wet/dry 0..1
	Decay    float64 // seconds for the plate, envelope exponent for the hall
	PreDelay float64 // seconds
	CutGrave float64 // highpass cutoff, Hz
	CutAgudo float64 // lowpass cutoff, Hz
	Volume   float64 // output gain
}

// DefaultPlateConfig is the stock plate. Tone cutoffs are pulled below
// nyquist at low sample rates.
func DefaultPlateConfig(sampleRate float64) ReverbConfig {
	return ReverbConfig{
		Mix:      0.5,
		Decay:    2.0,
		PreDelay: 0.01,
		CutGrave: belowNyquist(100, sampleRate),
		CutAgudo: belowNyquist(8000, sampleRate),
		Volume:   1.0,
	}
}

// belowNyquist caps a default cutoff at 45% of the sample rate.
func belowNyquist(hz, sampleRate float64) float64 {
	return min(hz, 0.45*sampleRate)
}

func reverbParams(component string, def ReverbConfig, sampleRate float64) *paramSet {
	return newParamSet(component,
		mixParam(def.Mix),
		decayParam(def.Decay),
		preDelayParam(def.PreDelay),
		cutoffParam("cutGrave", def.CutGrave, sampleRate),
		cutoffParam("cutAgudo", def.CutAgudo, sampleRate),
		volumeParam(),
	)
}

func (c ReverbConfig) settings() []setting {
	return []setting{
		{"mix", c.Mix},
		{"decay", c.Decay},
		{"preDelay", c.PreDelay},
		{"cutGrave", c.CutGrave},
		{"cutAgudo", c.CutAgudo},
		{"volume", c.Volume},
	}
}

type combFilter struct {
	line *dsp.DelayLine
	fb   float64
}

type allpassFilter struct {
	line *dsp.DelayLine
	fb   float64
}

func (c *combFilter) process(in float64) float64 {
	out := c.line.Current()
	c.line.Advance(in + out*c.fb)
	return out
}

func (a *allpassFilter) process(in float64) float64 {
	out := -a.fb*in + a.line.Current()
	a.line.Advance(in + a.fb*out)
	return out
}

// combFeedback gives roughly 60 dB of decay after decay seconds. A zero
// decay yields no recirculation.
func combFeedback(delay, decay float64) float64 {
	if decay <= 0 {
		return 0
	}
	return math.Exp(-3.0 * delay / decay)
}

// ReverbPlate is a Schroeder reverb: four parallel combs averaged, two
// series allpasses, then highpass and lowpass tone filters. All state
// carries across blocks.
type ReverbPlate struct {
	*paramSet
	sampleRate float64
	combs      [4]combFilter
	allpass    [2]allpassFilter
	pre        *dsp.DelayLine // nil when preDelay rounds to zero samples
	preSamples int
	hp, lp     *dsp.OnePole
	mix        float64
	volume     float64
}

func NewReverbPlate(sampleRate float64, cfg ReverbConfig) (*ReverbPlate, error) {
	if err := dsp.CheckSampleRate("reverbplate", sampleRate); err != nil {
		return nil, err
	}
	r := &ReverbPlate{
		paramSet:   reverbParams("reverbplate", DefaultPlateConfig(sampleRate), sampleRate),
		sampleRate: sampleRate,
		mix:        cfg.Mix,
		volume:     cfg.Volume,
	}
	if err := r.initAll(cfg.settings()...); err != nil {
		return nil, err
	}
	for i, d := range plateCombDelays {
		r.combs[i] = combFilter{
			line: dsp.NewDelayLine(dsp.DelaySamples(d, sampleRate)),
			fb:   combFeedback(d, cfg.Decay),
		}
	}
	for i, d := range plateAllpassDelays {
		r.allpass[i] = allpassFilter{
			line: dsp.NewDelayLine(dsp.DelaySamples(d, sampleRate)),
			fb:   plateAllpassFeedback,
		}
	}
	r.pre, r.preSamples = newPreDelay(cfg.PreDelay, sampleRate)
	var err error
	if r.hp, err = dsp.NewHighpass(cfg.CutGrave, sampleRate); err != nil {
		return nil, err
	}
	if r.lp, err = dsp.NewLowpass(cfg.CutAgudo, sampleRate); err != nil {
		return nil, err
	}
	return r, nil
}

func newPreDelay(seconds, sampleRate float64) (*dsp.DelayLine, int) {
	n := int(math.Round(seconds * sampleRate))
	if n <= 0 {
		return nil, 0
	}
	return dsp.NewDelayLine(n), n
}

// PreDelaySamples is the configured pre-delay in samples.
func (r *ReverbPlate) PreDelaySamples() int { return r.preSamples }

// CombFeedbacks reports the current comb coefficients.
func (r *ReverbPlate) CombFeedbacks() [4]float64 {
	var fb [4]float64
	for i := range r.combs {
		fb[i] = r.combs[i].fb
	}
	return fb
}

func (r *ReverbPlate) Process(block []float64) {
	// The pre-delay never reaches further back than the block being processed.
	pre := r.preSamples
	if pre > len(block) {
		pre = len(block)
	}
	for i, dry := range block {
		in := dry
		if r.pre != nil {
			in = 0
			if pre > 0 {
				in = r.pre.Tap(pre)
			}
			r.pre.Advance(dry)
		}
		var sum float64
		for c := range r.combs {
			sum += r.combs[c].process(in)
		}
		wet := sum * 0.25
		for a := range r.allpass {
			wet = r.allpass[a].process(wet)
		}
		wet = r.lp.Step(r.hp.Step(wet))
		block[i] = r.volume * ((1-r.mix)*dry + r.mix*wet)
	}
}

func (r *ReverbPlate) Reset() {
	for i := range r.combs {
		r.combs[i].line.Reset()
	}
	for i := range r.allpass {
		r.allpass[i].line.Reset()
	}
	if r.pre != nil {
		r.pre.Reset()
	}
	r.hp.Reset()
	r.lp.Reset()
}

func (r *ReverbPlate) Prepare(name string, value float64) (Change, error) {
	if err := r.validate(name, value); err != nil {
		return nil, err
	}
	var apply Change
	switch name {
	case "mix":
		apply = func() { r.mix = value }
	case "volume":
		apply = func() { r.volume = value }
	case "decay":
		var fb [4]float64
		for i, d := range plateCombDelays {
			fb[i] = combFeedback(d, value)
		}
		apply = func() {
			for i := range r.combs {
				r.combs[i].fb = fb[i]
			}
		}
	case "preDelay":
		line, n := newPreDelay(value, r.sampleRate)
		apply = func() {
			r.pre = line
			r.preSamples = n
		}
	case "cutGrave", "cutAgudo":
		alpha, err := dsp.OnePoleAlpha(value, r.sampleRate)
		if err != nil {
			return nil, err
		}
		f := r.hp
		if name == "cutAgudo" {
			f = r.lp
		}
		apply = func() { f.SetAlpha(alpha) }
	}
	r.commit(name, value)
	return apply, nil
}
