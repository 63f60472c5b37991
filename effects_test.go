package pedalfx

import (
	"errors"
	"strings"
	"testing"
)

func TestParseEffect(t *testing.T) {
	e, err := ParseEffect("plate mix=0.3 decay=1.5", 44100)
	if err != nil {
		t.Fatal(err)
	}
	if kind, _ := KindOf(e); kind != KindReverbPlate {
		t.Fatalf("expected plate, got %v", kind)
	}
	if v, _ := e.Param("mix"); v != 0.3 {
		t.Errorf("expected mix 0.3, got %f", v)
	}
	if v, _ := e.Param("cutGrave"); v != 100 {
		t.Errorf("expected default cutGrave 100, got %f", v)
	}
}

func TestParseEffectErrors(t *testing.T) {
	cases := []string{
		"",
		"flanger",
		"delay feedback",
		"delay feedback=abc",
		"delay feedback=1.2",
		"gate depth=3",
	}
	for _, def := range cases {
		if _, err := ParseEffect(def, 44100); !errors.Is(err, ErrConfiguration) {
			t.Errorf("%q: expected configuration error, got %v", def, err)
		}
	}
}

func TestParseEffectReportsRawValue(t *testing.T) {
	_, err := ParseEffect("delay feedback=abc", 44100)
	if err == nil || !strings.Contains(err.Error(), `feedback="abc"`) {
		t.Errorf("expected the rejected text in the error, got %v", err)
	}
}

func TestDescribeEffectRoundTrip(t *testing.T) {
	e, err := ParseEffect("analogdelay delayTime=0.25 feedback=-0.3 cutoff=3000", 48000)
	if err != nil {
		t.Fatal(err)
	}
	again, err := ParseEffect(DescribeEffect(e), 48000)
	if err != nil {
		t.Fatalf("re-parse %q: %v", DescribeEffect(e), err)
	}
	a, b := e.Params(), again.Params()
	for i := range a {
		if a[i].Value != b[i].Value {
			t.Errorf("%s: expected %g, got %g", a[i].Name, a[i].Value, b[i].Value)
		}
	}
}
