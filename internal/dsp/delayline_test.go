package dsp

import "testing"

func TestDelaySamplesRounds(t *testing.T) {
	cases := []struct {
		seconds float64
		rate    float64
		want    int
	}{
		{0.5, 44100, 22050},
		{0.0297, 44100, 1310},
		{0.0017, 44100, 75},
		{0, 44100, 1},
		{0.00001, 44100, 1},
	}
	for _, c := range cases {
		if got := DelaySamples(c.seconds, c.rate); got != c.want {
			t.Errorf("DelaySamples(%g, %g): expected %d, got %d", c.seconds, c.rate, c.want, got)
		}
	}
}

func TestDelayLineTickDelaysByLength(t *testing.T) {
	d := NewDelayLine(4)
	var out []float64
	for i := 0; i < 10; i++ {
		in := 0.0
		if i == 0 {
			in = 1
		}
		out = append(out, d.Tick(in))
	}
	for i, v := range out {
		want := 0.0
		if i == 4 {
			want = 1
		}
		if v != want {
			t.Errorf("sample %d: expected %f, got %f", i, want, v)
		}
	}
}

func TestDelayLineTap(t *testing.T) {
	d := NewDelayLine(8)
	for i := 1; i <= 5; i++ {
		d.Advance(float64(i))
	}
	if got := d.Tap(1); got != 5 {
		t.Errorf("expected most recent sample 5, got %f", got)
	}
	if got := d.Tap(3); got != 3 {
		t.Errorf("expected 3, got %f", got)
	}
	if got := d.Tap(100); got != 0 {
		t.Errorf("expected clamped tap to read unwritten zero, got %f", got)
	}
}

func TestDelayLineSwapDiscardsContent(t *testing.T) {
	d := NewDelayLine(3)
	d.Advance(1)
	d.Advance(2)
	d.Swap(make([]float64, 5))
	if d.Len() != 5 {
		t.Fatalf("expected length 5, got %d", d.Len())
	}
	for i := 0; i < 5; i++ {
		if v := d.Tick(0); v != 0 {
			t.Fatalf("expected zeroed buffer, got %f at %d", v, i)
		}
	}
}

func TestDelayLineCursorWraps(t *testing.T) {
	d := NewDelayLine(1)
	for i := 0; i < 3; i++ {
		d.Advance(float64(i))
		if d.Current() != float64(i) {
			t.Errorf("expected %d under cursor, got %f", i, d.Current())
		}
	}
	d.Reset()
	if d.Current() != 0 {
		t.Error("expected reset to clear buffer")
	}
}
