package dsp

import "math"

// Mode selects the output of a OnePole.
type Mode int

const (
	Lowpass Mode = iota
	Highpass
)

// OnePole is a first-order RC filter. The highpass output is the input minus
// the lowpass estimate, so both modes share one state variable.
type OnePole struct {
	mode  Mode
	alpha float64
	lp    float64
}

// NewLowpass creates a one-pole lowpass at cutoff Hz.
func NewLowpass(cutoff, sampleRate float64) (*OnePole, error) {
	return NewOnePole(Lowpass, cutoff, sampleRate)
}

// NewHighpass creates a one-pole highpass at cutoff Hz.
func NewHighpass(cutoff, sampleRate float64) (*OnePole, error) {
	return NewOnePole(Highpass, cutoff, sampleRate)
}

func NewOnePole(mode Mode, cutoff, sampleRate float64) (*OnePole, error) {
	alpha, err := OnePoleAlpha(cutoff, sampleRate)
	if err != nil {
		return nil, err
	}
	return &OnePole{mode: mode, alpha: alpha}, nil
}

// OnePoleAlpha returns dt/(RC+dt) for RC = 1/(2*pi*cutoff). Cutoffs at or
// above Nyquist are rejected rather than aliased.
func OnePoleAlpha(cutoff, sampleRate float64) (float64, error) {
	if err := CheckSampleRate("onepole", sampleRate); err != nil {
		return 0, err
	}
	if !Finite(cutoff) || cutoff <= 0 {
		return 0, Invalid("onepole", "cutoff", cutoff, "must be positive")
	}
	if cutoff >= sampleRate/2 {
		return 0, Invalid("onepole", "cutoff", cutoff, "must be below nyquist")
	}
	rc := 1.0 / (2.0 * math.Pi * cutoff)
	dt := 1.0 / sampleRate
	return dt / (rc + dt), nil
}

func (f *OnePole) Alpha() float64 { return f.alpha }

// SetAlpha installs a coefficient from OnePoleAlpha. Filter state is kept.
func (f *OnePole) SetAlpha(alpha float64) {
	f.alpha = alpha
}

// Step filters one sample.
func (f *OnePole) Step(x float64) float64 {
	f.lp += f.alpha * (x - f.lp)
	if f.mode == Highpass {
		return x - f.lp
	}
	return f.lp
}

// Process filters block in place.
func (f *OnePole) Process(block []float64) {
	for i, x := range block {
		block[i] = f.Step(x)
	}
}

func (f *OnePole) Reset() {
	f.lp = 0
}

// CutoffForAlpha inverts OnePoleAlpha.
func CutoffForAlpha(alpha, sampleRate float64) float64 {
	// alpha = dt/(RC+dt)  =>  RC = dt*(1-alpha)/alpha
	dt := 1.0 / sampleRate
	rc := dt * (1 - alpha) / alpha
	return 1.0 / (2.0 * math.Pi * rc)
}
