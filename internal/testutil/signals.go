// Package testutil holds signal generators and assertions shared by the
// processing package tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// ToneAmplitude estimates the amplitude of the freqHz component of data by
// correlating with a quadrature pair. data should span an integer number of
// periods for an exact result.
func ToneAmplitude(data []float64, freqHz, sampleRate float64) float64 {
	if len(data) == 0 {
		return 0
	}
	step := 2 * math.Pi * freqHz / sampleRate
	var re, im float64
	for i, v := range data {
		s, c := math.Sincos(step * float64(i))
		re += v * c
		im += v * s
	}
	return 2 * math.Hypot(re, im) / float64(len(data))
}
