package pedalfx

import (
	"math"

	intaudio "github.com/cbegin/pedalfx-go/internal/audio"
)

// Int16ToFloat maps a device sample to the engine range: v/32768.
func Int16ToFloat(v int16) float64 { return intaudio.Int16ToFloat(v) }

// FloatToInt16 is round(f*32768) saturated to the int16 range.
func FloatToInt16(f float64) int16 { return intaudio.FloatToInt16(f) }

// DecodeInt16 converts min(len(dst), len(src)) samples.
func DecodeInt16(dst []float64, src []int16) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = intaudio.Int16ToFloat(src[i])
	}
}

// EncodeInt16 converts min(len(dst), len(src)) samples.
func EncodeInt16(dst []int16, src []float64) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = intaudio.FloatToInt16(src[i])
	}
}

// Normalize scales samples in place so the largest magnitude is 1. Silent
// or empty input is left as is.
func Normalize(samples []float64) {
	var peak float64
	for _, v := range samples {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak == 0 || math.IsInf(peak, 0) || math.IsNaN(peak) {
		return
	}
	for i := range samples {
		samples[i] /= peak
	}
}
