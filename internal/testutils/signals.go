package testutils

import (
	"math"
	"math/rand"
)

// Sine generates a sine wave starting at phase zero.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate

	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// Tone generates a harmonic tone: amplitudes[k] is the amplitude of harmonic k+1.
// A zero amplitude leaves that harmonic out.
func Tone(fundamental, sampleRate float64, amplitudes []float64, length int) []float64 {
	out := make([]float64, length)

	for k, amplitude := range amplitudes {
		if amplitude == 0 {
			continue
		}

		step := 2 * math.Pi * fundamental * float64(k+1) / sampleRate
		for i := range out {
			out[i] += amplitude * math.Sin(step*float64(i))
		}
	}

	return out
}

// Noise generates white noise with a fixed seed.
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic fixture, not crypto

	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Concat joins signals end to end.
func Concat(parts ...[]float64) []float64 {
	var out []float64

	for _, part := range parts {
		out = append(out, part...)
	}

	return out
}
