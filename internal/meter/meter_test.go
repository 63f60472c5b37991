package meter

import (
	"errors"
	"math"
	"testing"
)

func TestLevels(t *testing.T) {
	m, err := New(8000, 64, 0)
	if err != nil {
		t.Fatal(err)
	}
	m.Tap([]float64{0.5, -0.5, 0.5, -0.5})
	l := m.Levels()
	if l.Peak != 0.5 || math.Abs(l.RMS-0.5) > 1e-12 || l.Samples != 4 {
		t.Errorf("unexpected levels %+v", l)
	}
	if math.Abs(l.PeakDB()-20*math.Log10(0.5)) > 1e-9 {
		t.Errorf("unexpected peak dB %f", l.PeakDB())
	}
	if after := m.Levels(); after.Peak != 0 || after.RMS != 0 {
		t.Errorf("expected levels to reset, got %+v", after)
	}
	if ToDB(0) != Floor {
		t.Errorf("expected floor for silence, got %f", ToDB(0))
	}
}

func TestSnapshotOrder(t *testing.T) {
	m, _ := New(8000, 16, 16)
	for i := 0; i < 20; i++ {
		m.Tap([]float64{float64(i)})
	}
	dst := make([]float64, 4)
	if n := m.Snapshot(dst); n != 4 {
		t.Fatalf("expected 4 samples, got %d", n)
	}
	for i, v := range dst {
		if v != float64(16+i) {
			t.Errorf("index %d: expected %d, got %f", i, 16+i, v)
		}
	}
}

func TestSpectrumFindsSine(t *testing.T) {
	const sr, freq = 8000.0, 1000.0
	m, err := New(sr, 1024, 4096)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Spectrum(); !errors.Is(err, ErrNotEnoughSamples) {
		t.Fatalf("expected ErrNotEnoughSamples, got %v", err)
	}
	block := make([]float64, 256)
	n := 0
	for b := 0; b < 8; b++ {
		for i := range block {
			block[i] = 0.8 * math.Sin(2*math.Pi*freq*float64(n)/sr)
			n++
		}
		m.Tap(block)
	}
	f, mag, err := m.PeakFrequency()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(f-freq) > sr/1024 {
		t.Errorf("expected peak near %f Hz, got %f", freq, f)
	}
	if math.Abs(mag-0.8) > 0.05 {
		t.Errorf("expected magnitude near 0.8, got %f", mag)
	}
}

func TestTapSkipsWhenBusy(t *testing.T) {
	m, _ := New(8000, 16, 0)
	m.mu.Lock()
	m.Tap([]float64{1})
	m.mu.Unlock()
	if m.Skipped() != 1 {
		t.Errorf("expected 1 skipped block, got %d", m.Skipped())
	}
	if l := m.Levels(); l.Samples != 0 {
		t.Errorf("expected skipped block to be ignored, got %+v", l)
	}
}

func TestNewRejectsBadSize(t *testing.T) {
	if _, err := New(8000, 100, 0); err == nil {
		t.Error("expected non power of two to be rejected")
	}
	if _, err := New(0, 64, 0); err == nil {
		t.Error("expected zero sample rate to be rejected")
	}
}
