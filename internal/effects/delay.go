package effects

import "github.com/cbegin/pedalfx-go/internal/dsp"

// feedbackDelay is the comb shared by Delay and AnalogDelay. The sample under
// the cursor is the wet signal; input plus wet*feedback is written back.
type feedbackDelay struct {
	line     *dsp.DelayLine
	feedback float64
	mix      float64
	tone     *dsp.OnePole // nil for a clean delay
}

func (d *feedbackDelay) process(block []float64) {
	for i, dry := range block {
		wet := d.line.Current()
		if d.tone != nil {
			wet = d.tone.Step(wet)
		}
		block[i] = dry*(1-d.mix) + wet*d.mix
		d.line.Advance(dry + wet*d.feedback)
	}
}

func (d *feedbackDelay) reset() {
	d.line.Reset()
	if d.tone != nil {
		d.tone.Reset()
	}
}

// prepare handles the entries common to both delays.
func (d *feedbackDelay) prepare(params *paramSet, sampleRate float64, name string, v float64) (Change, error) {
	if err := params.validate(name, v); err != nil {
		return nil, err
	}
	var apply Change
	switch name {
	case "delayTime":
		// Resizing drops whatever is in flight.
		buf := make([]float64, dsp.DelaySamples(v, sampleRate))
		apply = func() { d.line.Swap(buf) }
	case "feedback":
		apply = func() { d.feedback = v }
	case "mix":
		apply = func() { d.mix = v }
	case "cutoff":
		alpha, err := dsp.OnePoleAlpha(v, sampleRate)
		if err != nil {
			return nil, err
		}
		apply = func() { d.tone.SetAlpha(alpha) }
	default:
		return nil, dsp.Unknown(params.component, name)
	}
	params.commit(name, v)
	return apply, nil
}

// Delay is a mono feedback delay.
type Delay struct {
	*paramSet
	sampleRate float64
	core       feedbackDelay
}

// NewDelay creates a delay.
// delayTime: seconds, buffer length is round(delayTime*sampleRate)
// feedback: echo gain per round trip, |feedback| < 1
// mix: wet/dry mix 0..1
func NewDelay(sampleRate, delayTime, feedback, mix float64) (*Delay, error) {
	if err := dsp.CheckSampleRate("delay", sampleRate); err != nil {
		return nil, err
	}
	d := &Delay{
		paramSet:   newParamSet("delay", delayTimeParam(), feedbackParam(), mixParam(1)),
		sampleRate: sampleRate,
	}
	if err := d.initAll(
		setting{"delayTime", delayTime},
		setting{"feedback", feedback},
		setting{"mix", mix},
	); err != nil {
		return nil, err
	}
	d.core = feedbackDelay{
		line:     dsp.NewDelayLine(dsp.DelaySamples(delayTime, sampleRate)),
		feedback: feedback,
		mix:      mix,
	}
	return d, nil
}

func (d *Delay) Process(block []float64) { d.core.process(block) }
func (d *Delay) Reset()                  { d.core.reset() }

// BufferLength is the delay in samples.
func (d *Delay) BufferLength() int { return d.core.line.Len() }

func (d *Delay) Prepare(name string, value float64) (Change, error) {
	return d.core.prepare(d.paramSet, d.sampleRate, name, value)
}

// AnalogDelay is a Delay whose feedback path runs through a one-pole lowpass,
// so each repeat is darker than the last.
type AnalogDelay struct {
	*paramSet
	sampleRate float64
	core       feedbackDelay
}

// DefaultAnalogCutoff places the tone filter where alpha is 0.5, i.e. each
// repeat is averaged with the previous filtered sample.
func DefaultAnalogCutoff(sampleRate float64) float64 {
	return dsp.CutoffForAlpha(0.5, sampleRate)
}

func NewAnalogDelay(sampleRate, delayTime, feedback, mix, cutoff float64) (*AnalogDelay, error) {
	if err := dsp.CheckSampleRate("analogdelay", sampleRate); err != nil {
		return nil, err
	}
	d := &AnalogDelay{
		paramSet: newParamSet("analogdelay",
			delayTimeParam(),
			feedbackParam(),
			mixParam(0.5),
			cutoffParam("cutoff", DefaultAnalogCutoff(sampleRate), sampleRate),
		),
		sampleRate: sampleRate,
	}
	if err := d.initAll(
		setting{"delayTime", delayTime},
		setting{"feedback", feedback},
		setting{"mix", mix},
		setting{"cutoff", cutoff},
	); err != nil {
		return nil, err
	}
	tone, err := dsp.NewLowpass(cutoff, sampleRate)
	if err != nil {
		return nil, err
	}
	d.core = feedbackDelay{
		line:     dsp.NewDelayLine(dsp.DelaySamples(delayTime, sampleRate)),
		feedback: feedback,
		mix:      mix,
		tone:     tone,
	}
	return d, nil
}

func (d *AnalogDelay) Process(block []float64) { d.core.process(block) }
func (d *AnalogDelay) Reset()                  { d.core.reset() }
func (d *AnalogDelay) BufferLength() int       { return d.core.line.Len() }

func (d *AnalogDelay) Prepare(name string, value float64) (Change, error) {
	return d.core.prepare(d.paramSet, d.sampleRate, name, value)
}
