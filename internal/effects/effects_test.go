package effects

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/cbegin/pedalfx-go/internal/dsp"
)

func impulse(n int) []float64 {
	b := make([]float64, n)
	b[0] = 1
	return b
}

func TestDelayImpulseReappearsAtBufferLength(t *testing.T) {
	d, err := NewDelay(44100, 0.01, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	length := d.BufferLength()
	if length != 441 {
		t.Fatalf("expected buffer length 441, got %d", length)
	}
	block := impulse(3 * length)
	d.Process(block)
	for i, v := range block {
		want := 0.0
		if i == length {
			want = 1
		}
		if v != want {
			t.Errorf("sample %d: expected %f, got %f", i, want, v)
		}
	}
}

func TestDelayEchoesDecayGeometrically(t *testing.T) {
	for _, fb := range []float64{0.6, -0.5, 0.95} {
		d, err := NewDelay(10000, 0.01, fb, 1)
		if err != nil {
			t.Fatal(err)
		}
		length := d.BufferLength()
		block := impulse(8*length + 1)
		d.Process(block)
		for k := 2; k <= 8; k++ {
			prev, cur := block[(k-1)*length], block[k*length]
			if math.Abs(cur-prev*fb) > 1e-12 {
				t.Errorf("feedback %g echo %d: expected %g, got %g", fb, k, prev*fb, cur)
			}
		}
	}
}

func TestDelayHalfSecondScenario(t *testing.T) {
	e, err := New(KindDelay, 44100)
	if err != nil {
		t.Fatal(err)
	}
	block := impulse(44101)
	e.Process(block)
	for i := 1; i < 22050; i++ {
		if math.Abs(block[i]) > 1e-9 {
			t.Fatalf("expected silence at %d, got %f", i, block[i])
		}
	}
	if math.Abs(block[22050]-1.0) > 1e-9 {
		t.Errorf("expected 1.0 at 22050, got %f", block[22050])
	}
	if math.Abs(block[44100]-0.5) > 1e-9 {
		t.Errorf("expected 0.5 at 44100, got %f", block[44100])
	}
}

func TestDelayStateCarriesAcrossBlocks(t *testing.T) {
	d, _ := NewDelay(1000, 0.05, 0.5, 0.5)
	first := impulse(30)
	d.Process(first)
	second := make([]float64, 30)
	d.Process(second)
	if math.Abs(second[20]-0.5) > 1e-12 {
		t.Errorf("expected echo at 50 samples, got %f", second[20])
	}
}

func TestDelayRejectsUnstableFeedback(t *testing.T) {
	if _, err := NewDelay(44100, 0.5, 1.0, 1); !errors.Is(err, dsp.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
	d, _ := NewDelay(44100, 0.5, 0.5, 1)
	for _, v := range []float64{-1, 1.5, math.NaN(), math.Inf(-1)} {
		if _, err := d.Prepare("feedback", v); !errors.Is(err, dsp.ErrConfiguration) {
			t.Errorf("feedback %g: expected configuration error, got %v", v, err)
		}
	}
	if v, _ := d.Param("feedback"); v != 0.5 {
		t.Errorf("expected rejected update to leave 0.5, got %f", v)
	}
}

func TestDelayTimeChangeResizesAndClears(t *testing.T) {
	d, _ := NewDelay(1000, 0.01, 0.5, 1)
	d.Process(impulse(5))
	if err := Set(d, "delayTime", 0.02); err != nil {
		t.Fatal(err)
	}
	if d.BufferLength() != 20 {
		t.Fatalf("expected 20 samples, got %d", d.BufferLength())
	}
	block := make([]float64, 60)
	d.Process(block)
	for i, v := range block {
		if v != 0 {
			t.Fatalf("expected resized buffer to be empty, got %f at %d", v, i)
		}
	}
}

func TestDelayStagedChangeNotAppliedUntilRun(t *testing.T) {
	d, _ := NewDelay(1000, 0.01, 0.5, 1)
	apply, err := d.Prepare("mix", 0)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := d.Param("mix"); v != 0 {
		t.Errorf("expected staged mix 0, got %f", v)
	}
	block := []float64{0.25}
	d.Process(block)
	if block[0] != 0 {
		t.Errorf("expected wet-only output before apply, got %f", block[0])
	}
	apply()
	block[0] = 0.25
	d.Process(block)
	if block[0] != 0.25 {
		t.Errorf("expected dry output after apply, got %f", block[0])
	}
}

func TestAnalogDelayDarkensRepeats(t *testing.T) {
	d, err := New(KindAnalogDelay, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if err := Set(d, "feedback", 0); err != nil {
		t.Fatal(err)
	}
	if err := Set(d, "mix", 1); err != nil {
		t.Fatal(err)
	}
	length := d.(*AnalogDelay).BufferLength()
	block := impulse(length + 3)
	d.Process(block)
	if math.Abs(block[length]-0.5) > 1e-9 {
		t.Errorf("expected smoothed repeat 0.5, got %f", block[length])
	}
	if math.Abs(block[length+1]-0.25) > 1e-9 {
		t.Errorf("expected smeared tail 0.25, got %f", block[length+1])
	}
}

func TestPlainDelayHasNoCutoff(t *testing.T) {
	d, _ := New(KindDelay, 44100)
	_, err := d.Prepare("cutoff", 1000)
	if !errors.Is(err, dsp.ErrUnknownParameter) || !errors.Is(err, dsp.ErrConfiguration) {
		t.Errorf("expected unknown parameter error, got %v", err)
	}
}

func TestDistortionOutputBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, gain := range []float64{0, 0.5, 1, 10, 1e6, -3} {
		d, err := NewDistortion(gain)
		if err != nil {
			t.Fatal(err)
		}
		block := make([]float64, 256)
		for i := range block {
			block[i] = (rng.Float64()*2 - 1) * 100
		}
		d.Process(block)
		for i, v := range block {
			if v < -1 || v > 1 {
				t.Fatalf("gain %g sample %d: expected [-1,1], got %f", gain, i, v)
			}
		}
	}
	d, _ := NewDistortion(2)
	block := []float64{0.25, -0.4, 0.9}
	d.Process(block)
	want := []float64{0.5, -0.8, 1}
	for i := range want {
		if block[i] != want[i] {
			t.Errorf("sample %d: expected %f, got %f", i, want[i], block[i])
		}
	}
	if _, err := NewDistortion(math.Inf(1)); err == nil {
		t.Error("expected infinite gain to be rejected")
	}
}

func TestGateThreshold(t *testing.T) {
	g, err := NewGate(44100, 0.3, 10, 100)
	if err != nil {
		t.Fatal(err)
	}
	in := []float64{0.1, -0.29, 0.3, -0.3, 0.9, -0.5, 0, 0.2999}
	block := append([]float64(nil), in...)
	g.Process(block)
	for i, x := range in {
		if math.Abs(x) < 0.3 {
			if block[i] != 0 {
				t.Errorf("sample %d: expected 0, got %f", i, block[i])
			}
		} else if block[i] != x {
			t.Errorf("sample %d: expected %f unchanged, got %f", i, x, block[i])
		}
	}
}

func TestGateAttackReleaseIgnoredByDefault(t *testing.T) {
	g, _ := NewGate(1000, 0.1, 500, 500)
	block := []float64{0.5, 0.01}
	g.Process(block)
	if block[0] != 0.5 || block[1] != 0 {
		t.Errorf("expected hard gate, got %v", block)
	}
}

func TestGateSmoothingRelease(t *testing.T) {
	g, _ := NewGate(1000, 0.1, 0, 10)
	if err := Set(g, "smoothing", 1); err != nil {
		t.Fatal(err)
	}
	block := []float64{0.5, 0.5, 0.01, 0.01}
	g.Process(block)
	if block[0] != 0.5 {
		t.Errorf("expected zero attack to open at once, got %f", block[0])
	}
	coef := 1 - math.Exp(-1.0/10)
	want := 0.01 * (1 - coef)
	if math.Abs(block[2]-want) > 1e-12 {
		t.Errorf("expected release tail %g, got %g", want, block[2])
	}
	if _, err := g.Prepare("smoothing", 0.5); !errors.Is(err, dsp.ErrConfiguration) {
		t.Errorf("expected smoothing 0.5 to be rejected, got %v", err)
	}
}

func TestReverbPlateMixZeroIsIdentity(t *testing.T) {
	cfg := DefaultPlateConfig(44100)
	cfg.Mix = 0
	r, err := NewReverbPlate(44100, cfg)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(7))
	in := make([]float64, 4096)
	for i := range in {
		in[i] = rng.Float64()*2 - 1
	}
	block := append([]float64(nil), in...)
	r.Process(block)
	for i := range in {
		if block[i] != in[i] {
			t.Fatalf("sample %d: expected %f, got %f", i, in[i], block[i])
		}
	}
}

func TestReverbPlateTailEnergyDecays(t *testing.T) {
	const sr = 8000
	cfg := DefaultPlateConfig(sr)
	cfg.Mix = 1
	cfg.Decay = 0.5
	cfg.CutAgudo = 3000
	r, err := NewReverbPlate(sr, cfg)
	if err != nil {
		t.Fatal(err)
	}
	window := int(cfg.Decay * sr)
	signal := impulse(6 * window)
	for start := 0; start < len(signal); start += 256 {
		end := min(start+256, len(signal))
		r.Process(signal[start:end])
	}
	prev := math.Inf(1)
	for w := 0; w < 6; w++ {
		var e float64
		for _, v := range signal[w*window : (w+1)*window] {
			e += v * v
		}
		if e > prev {
			t.Errorf("window %d: energy rose from %g to %g", w, prev, e)
		}
		prev = e
	}
	if prev <= 0 {
		t.Error("expected a non-zero tail")
	}
}

func TestReverbPlateCombFeedback(t *testing.T) {
	r, _ := NewReverbPlate(44100, DefaultPlateConfig(44100))
	fb := r.CombFeedbacks()
	for i, d := range plateCombDelays {
		want := math.Exp(-3 * d / 2.0)
		if math.Abs(fb[i]-want) > 1e-15 {
			t.Errorf("comb %d: expected %g, got %g", i, want, fb[i])
		}
	}
	if err := Set(r, "decay", 0); err != nil {
		t.Fatal(err)
	}
	for i, v := range r.CombFeedbacks() {
		if v != 0 {
			t.Errorf("comb %d: expected zero feedback for zero decay, got %g", i, v)
		}
	}
}

func TestReverbPlateStreamsAcrossBlocks(t *testing.T) {
	cfg := DefaultPlateConfig(44100)
	cfg.PreDelay = 0
	whole, _ := NewReverbPlate(44100, cfg)
	split, _ := NewReverbPlate(44100, cfg)
	a := impulse(5000)
	b := impulse(5000)
	whole.Process(a)
	for start := 0; start < len(b); start += 512 {
		split.Process(b[start:min(start+512, len(b))])
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-12 {
			t.Fatalf("sample %d: whole=%g split=%g", i, a[i], b[i])
		}
	}
}

func TestReverbPlatePreDelayShiftsTail(t *testing.T) {
	firstNonZero := func(preDelay float64) int {
		cfg := DefaultPlateConfig(44100)
		cfg.Mix = 1
		cfg.PreDelay = preDelay
		r, err := NewReverbPlate(44100, cfg)
		if err != nil {
			t.Fatal(err)
		}
		block := impulse(4096)
		r.Process(block)
		for i, v := range block {
			if v != 0 {
				return i
			}
		}
		return -1
	}
	base := firstNonZero(0)
	if base != 1310 {
		t.Fatalf("expected first reflection at 1310, got %d", base)
	}
	if got := firstNonZero(0.01); got != base+441 {
		t.Errorf("expected pre-delay of 441 samples, got first output at %d", got)
	}
}

func TestReverbPlatePreDelayClampedToBlock(t *testing.T) {
	run := func(preDelay float64) []float64 {
		cfg := DefaultPlateConfig(44100)
		cfg.Mix = 1
		cfg.PreDelay = preDelay
		r, err := NewReverbPlate(44100, cfg)
		if err != nil {
			t.Fatal(err)
		}
		signal := impulse(4096)
		for start := 0; start < len(signal); start += 64 {
			r.Process(signal[start : start+64])
		}
		return signal
	}
	clamped := run(0.01)
	first := -1
	for i, v := range clamped {
		if v != 0 {
			first = i
			break
		}
	}
	if first != 1310+64 {
		t.Fatalf("expected first reflection at %d, got %d", 1310+64, first)
	}
	// 441 samples of pre-delay on 64-sample blocks behaves as 64 samples.
	exact := run(64.0 / 44100)
	for i := range clamped {
		if clamped[i] != exact[i] {
			t.Fatalf("sample %d: clamped=%g exact=%g", i, clamped[i], exact[i])
		}
	}
}

func TestReverbPlatePreDelayUpdate(t *testing.T) {
	r, _ := NewReverbPlate(44100, DefaultPlateConfig(44100))
	if r.PreDelaySamples() != 441 {
		t.Fatalf("expected 441, got %d", r.PreDelaySamples())
	}
	if err := Set(r, "preDelay", 0.02); err != nil {
		t.Fatal(err)
	}
	if r.PreDelaySamples() != 882 {
		t.Errorf("expected 882, got %d", r.PreDelaySamples())
	}
}

func TestHallReverbMixZeroIsIdentity(t *testing.T) {
	cfg := DefaultHallConfig(44100)
	cfg.Mix = 0
	h, err := NewHallReverb(44100, cfg)
	if err != nil {
		t.Fatal(err)
	}
	in := []float64{0.1, -0.2, 0.3, 0.7, -1}
	block := append([]float64(nil), in...)
	h.Process(block)
	for i := range in {
		if block[i] != in[i] {
			t.Errorf("sample %d: expected %f, got %f", i, in[i], block[i])
		}
	}
}

func TestHallReverbPreDelaySilencesHead(t *testing.T) {
	cfg := DefaultHallConfig(1000)
	cfg.Mix = 1
	cfg.CutGrave = 20
	h, err := NewHallReverb(1000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if h.PreDelaySamples() != 50 {
		t.Fatalf("expected 50 samples, got %d", h.PreDelaySamples())
	}
	block := make([]float64, 100)
	for i := range block {
		block[i] = 1
	}
	h.Process(block)
	for i := 0; i < 50; i++ {
		if block[i] != 0 {
			t.Fatalf("sample %d: expected silence, got %f", i, block[i])
		}
	}
	if block[50] == 0 {
		t.Error("expected wet signal after pre-delay")
	}
}

func TestHallReverbIsStatelessPerCall(t *testing.T) {
	h, _ := NewHallReverb(44100, DefaultHallConfig(44100))
	in := make([]float64, 1024)
	for i := range in {
		in[i] = math.Sin(float64(i) * 0.05)
	}
	a := append([]float64(nil), in...)
	b := append([]float64(nil), in...)
	h.Process(a)
	h.Process(b)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d: first=%g second=%g", i, a[i], b[i])
		}
	}
}

func TestHallReverbDegenerateLengths(t *testing.T) {
	cfg := DefaultHallConfig(44100)
	cfg.PreDelay = 0
	h, _ := NewHallReverb(44100, cfg)
	h.Process(nil)
	block := []float64{0.5}
	h.Process(block)
	if math.IsNaN(block[0]) || math.IsInf(block[0], 0) {
		t.Errorf("expected finite output for single sample, got %f", block[0])
	}
}

func TestHallReverbVolume(t *testing.T) {
	cfg := DefaultHallConfig(44100)
	cfg.Mix = 0
	cfg.Volume = 2
	h, _ := NewHallReverb(44100, cfg)
	block := []float64{0.25}
	h.Process(block)
	if block[0] != 0.5 {
		t.Errorf("expected 0.5, got %f", block[0])
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"delay":        KindDelay,
		"Analog-Delay": KindAnalogDelay,
		"dist":         KindDistortion,
		"gate":         KindGate,
		"hall":         KindHallReverb,
		" plate ":      KindReverbPlate,
	}
	for name, want := range cases {
		got, err := ParseKind(name)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q): expected %v, got %v (%v)", name, want, got, err)
		}
	}
	if _, err := ParseKind("chorus"); !errors.Is(err, dsp.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestEveryKindHasValidatedTable(t *testing.T) {
	for _, sr := range []float64{8000, 11025, 16000, 22050, 44100, 48000} {
		for _, kind := range Kinds() {
			e, err := New(kind, sr)
			if err != nil {
				t.Fatalf("%v at %g Hz: %v", kind, sr, err)
			}
			if got, ok := KindOf(e); !ok || got != kind {
				t.Errorf("%v: KindOf returned %v", kind, got)
			}
			if kind.String() == "" {
				t.Errorf("%d: empty name", int(kind))
			}
			for _, p := range e.Params() {
				if p.Value != p.Default {
					t.Errorf("%v %s at %g Hz: expected default %g, got %g", kind, p.Name, sr, p.Default, p.Value)
				}
				if err := Set(e, p.Name, p.Default); err != nil {
					t.Errorf("%v %s at %g Hz: default rejected: %v", kind, p.Name, sr, err)
				}
				if _, err := e.Prepare(p.Name, math.NaN()); !errors.Is(err, dsp.ErrConfiguration) {
					t.Errorf("%v %s: expected NaN rejection, got %v", kind, p.Name, err)
				}
			}
			if _, err := e.Param("nope"); !errors.Is(err, dsp.ErrUnknownParameter) {
				t.Errorf("%v: expected unknown parameter, got %v", kind, err)
			}
			e.Process(make([]float64, 16))
			e.Reset()
		}
	}
}

func TestReverbDefaultsFollowSampleRate(t *testing.T) {
	if cfg := DefaultPlateConfig(44100); cfg.CutAgudo != 8000 || cfg.CutGrave != 100 {
		t.Errorf("expected stock plate cutoffs at 44.1 kHz, got %+v", cfg)
	}
	if cfg := DefaultHallConfig(16000); cfg.CutAgudo != 7200 || cfg.CutGrave != 200 {
		t.Errorf("expected lowpass capped at 7200 Hz, got %+v", cfg)
	}
	if cfg := DefaultPlateConfig(8000); cfg.CutAgudo != 3600 {
		t.Errorf("expected lowpass capped at 3600 Hz, got %+v", cfg)
	}
}

func TestReverbCutoffRejectsNyquist(t *testing.T) {
	r, _ := NewReverbPlate(44100, DefaultPlateConfig(44100))
	if _, err := r.Prepare("cutAgudo", 22050); !errors.Is(err, dsp.ErrConfiguration) {
		t.Errorf("expected nyquist rejection, got %v", err)
	}
	if v, _ := r.Param("cutAgudo"); v != 8000 {
		t.Errorf("expected cutAgudo to stay 8000, got %f", v)
	}
}
