package effects

import (
	"math"

	"github.com/cbegin/pedalfx-go/internal/dsp"
)

func DefaultHallConfig(sampleRate float64) ReverbConfig {
	return ReverbConfig{
		Mix:      0.5,
		Decay:    2.0,
		PreDelay: 0.05,
		CutGrave: belowNyquist(200, sampleRate),
		CutAgudo: belowNyquist(8000, sampleRate),
		Volume:   1.0,
	}
}

// HallReverb synthesises a tail from the block itself: the input is shifted
// by the pre-delay, shaped by exp(-linspace(0, decay, N)) over the padded
// length N, then highpassed and lowpassed.
//
// Every call starts from silence. The tail never spills into the next block,
// so block boundaries are audible on streamed input; this is intended for
// whole-buffer use.
type HallReverb struct {
	*paramSet
	sampleRate float64
	mix        float64
	decay      float64
	preSamples int
	hpAlpha    float64
	lpAlpha    float64
	volume     float64
	dry        []float64
}

func NewHallReverb(sampleRate float64, cfg ReverbConfig) (*HallReverb, error) {
	if err := dsp.CheckSampleRate("hallreverb", sampleRate); err != nil {
		return nil, err
	}
	h := &HallReverb{
		paramSet:   reverbParams("hallreverb", DefaultHallConfig(sampleRate), sampleRate),
		sampleRate: sampleRate,
	}
	if err := h.initAll(cfg.settings()...); err != nil {
		return nil, err
	}
	var err error
	if h.hpAlpha, err = dsp.OnePoleAlpha(cfg.CutGrave, sampleRate); err != nil {
		return nil, err
	}
	if h.lpAlpha, err = dsp.OnePoleAlpha(cfg.CutAgudo, sampleRate); err != nil {
		return nil, err
	}
	h.mix = cfg.Mix
	h.decay = cfg.Decay
	h.preSamples = int(math.Round(cfg.PreDelay * sampleRate))
	h.volume = cfg.Volume
	return h, nil
}

// Grow reserves scratch space so blocks up to maxBlock never allocate.
func (h *HallReverb) Grow(maxBlock int) {
	if cap(h.dry) < maxBlock {
		h.dry = make([]float64, maxBlock)
	}
}

// PreDelaySamples is the configured pre-delay in samples.
func (h *HallReverb) PreDelaySamples() int { return h.preSamples }

func (h *HallReverb) Process(block []float64) {
	n := len(block)
	if n == 0 {
		return
	}
	h.Grow(n)
	dry := h.dry[:n]
	copy(dry, block)

	total := n + h.preSamples
	step := 0.0
	if total > 1 {
		step = h.decay / float64(total-1)
	}
	var hpState, lp float64
	for k := 0; k < n; k++ {
		var x float64
		if k >= h.preSamples {
			x = dry[k-h.preSamples] * math.Exp(-step*float64(k))
		}
		hpState += h.hpAlpha * (x - hpState)
		lp += h.lpAlpha * ((x - hpState) - lp)
		block[k] = h.volume * ((1-h.mix)*dry[k] + h.mix*lp)
	}
}

func (h *HallReverb) Reset() {}

func (h *HallReverb) Prepare(name string, value float64) (Change, error) {
	if err := h.validate(name, value); err != nil {
		return nil, err
	}
	var apply Change
	switch name {
	case "mix":
		apply = func() { h.mix = value }
	case "decay":
		apply = func() { h.decay = value }
	case "volume":
		apply = func() { h.volume = value }
	case "preDelay":
		n := int(math.Round(value * h.sampleRate))
		apply = func() { h.preSamples = n }
	case "cutGrave", "cutAgudo":
		alpha, err := dsp.OnePoleAlpha(value, h.sampleRate)
		if err != nil {
			return nil, err
		}
		if name == "cutGrave" {
			apply = func() { h.hpAlpha = alpha }
		} else {
			apply = func() { h.lpAlpha = alpha }
		}
	}
	h.commit(name, value)
	return apply, nil
}
