package dsp

import (
	"errors"
	"math"
	"testing"
)

func TestOnePoleAlphaMatchesRCRelation(t *testing.T) {
	alpha, err := OnePoleAlpha(1000, 44100)
	if err != nil {
		t.Fatal(err)
	}
	rc := 1.0 / (2 * math.Pi * 1000)
	dt := 1.0 / 44100
	want := dt / (rc + dt)
	if math.Abs(alpha-want) > 1e-15 {
		t.Errorf("expected alpha %g, got %g", want, alpha)
	}
}

func TestOnePoleRejectsBadCutoff(t *testing.T) {
	for _, cutoff := range []float64{0, -10, 22050, 30000, math.NaN(), math.Inf(1)} {
		_, err := NewLowpass(cutoff, 44100)
		if err == nil {
			t.Errorf("cutoff %g: expected error", cutoff)
			continue
		}
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("cutoff %g: expected ErrConfiguration, got %v", cutoff, err)
		}
	}
	if _, err := NewHighpass(100, 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected sample rate rejection, got %v", err)
	}
}

func TestLowpassConvergesToDC(t *testing.T) {
	f, err := NewLowpass(500, 44100)
	if err != nil {
		t.Fatal(err)
	}
	var y float64
	for i := 0; i < 44100; i++ {
		y = f.Step(1)
	}
	if math.Abs(y-1) > 1e-6 {
		t.Errorf("expected lowpass to settle at 1, got %f", y)
	}
}

func TestHighpassIsComplementOfLowpass(t *testing.T) {
	lp, _ := NewLowpass(300, 48000)
	hp, _ := NewHighpass(300, 48000)
	for i := 0; i < 512; i++ {
		x := math.Sin(float64(i) * 0.07)
		sum := lp.Step(x) + hp.Step(x)
		if math.Abs(sum-x) > 1e-12 {
			t.Fatalf("sample %d: expected lp+hp=%f, got %f", i, x, sum)
		}
	}
}

func TestHighpassBlocksDC(t *testing.T) {
	hp, _ := NewHighpass(200, 44100)
	block := make([]float64, 44100)
	for i := range block {
		block[i] = 0.5
	}
	hp.Process(block)
	if math.Abs(block[len(block)-1]) > 1e-6 {
		t.Errorf("expected DC to be removed, got %f", block[len(block)-1])
	}
}

func TestOnePoleStatePersistsAcrossBlocks(t *testing.T) {
	whole, _ := NewLowpass(2000, 44100)
	split, _ := NewLowpass(2000, 44100)
	in := make([]float64, 256)
	for i := range in {
		in[i] = math.Sin(float64(i) * 0.3)
	}
	a := append([]float64(nil), in...)
	whole.Process(a)
	b := append([]float64(nil), in...)
	split.Process(b[:100])
	split.Process(b[100:])
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d: whole=%f split=%f", i, a[i], b[i])
		}
	}
}

func TestSetAlphaKeepsState(t *testing.T) {
	f, _ := NewLowpass(1000, 44100)
	state := f.Step(1)
	alpha, err := OnePoleAlpha(5000, 44100)
	if err != nil {
		t.Fatal(err)
	}
	f.SetAlpha(alpha)
	if f.Alpha() != alpha {
		t.Fatalf("expected alpha %g, got %g", alpha, f.Alpha())
	}
	got := f.Step(0)
	if want := state * (1 - alpha); math.Abs(got-want) > 1e-15 {
		t.Errorf("expected %g from the kept state, got %g", want, got)
	}
}

func TestCutoffForAlphaInvertsOnePoleAlpha(t *testing.T) {
	const sr = 44100.0
	for _, alpha := range []float64{0.1, 0.5, 0.9} {
		cutoff := CutoffForAlpha(alpha, sr)
		got, err := OnePoleAlpha(cutoff, sr)
		if err != nil {
			t.Fatalf("alpha %g: %v", alpha, err)
		}
		if math.Abs(got-alpha) > 1e-12 {
			t.Errorf("alpha %g: round trip gave %g", alpha, got)
		}
	}
	if got := CutoffForAlpha(0.5, sr); math.Abs(got-sr/(2*math.Pi)) > 1e-9 {
		t.Errorf("expected alpha 0.5 at sr/2pi, got %g", got)
	}
}
