// Package spectrum computes one-sided frequency spectra of frames and refines peak frequencies.
package spectrum

import "math"

// FrequencySpectrum is the one-sided spectrum of a real frame of 2*(Size-1) samples.
// All arrays are filled wholesale by Analyzer.Compute.
type FrequencySpectrum struct {
	Size int
	Df   float64 // Hz between two bins
	Dt   float64 // seconds between two samples of the source frame

	// FramePosition is the absolute sample offset of the source frame.
	FramePosition int64

	// Spectrum holds interleaved real and imaginary parts, 2*Size values.
	Spectrum []float64
	// Frequencies[i] = i*Df.
	Frequencies []float64
	// AmplitudeSpectrumSquared[i] = (re^2 + im^2) / (2N)^2 with N the number of input samples.
	AmplitudeSpectrumSquared []float64
	// PlottingSpectrumNormalized is AmplitudeSpectrumSquared divided by its maximum, in [0, 1].
	PlottingSpectrumNormalized []float64

	re []float64
	im []float64
}

// NewFrequencySpectrum allocates a spectrum of size bins spaced by df Hz.
func NewFrequencySpectrum(size int, df float64) *FrequencySpectrum {
	spec := &FrequencySpectrum{
		Size:                       size,
		Df:                         df,
		Spectrum:                   make([]float64, 2*size),
		Frequencies:                make([]float64, size),
		AmplitudeSpectrumSquared:   make([]float64, size),
		PlottingSpectrumNormalized: make([]float64, size),
		re:                         make([]float64, size),
		im:                         make([]float64, size),
	}

	for i := range spec.Frequencies {
		spec.Frequencies[i] = float64(i) * df
	}

	return spec
}

// Real returns the real part of bin i.
func (s *FrequencySpectrum) Real(i int) float64 {
	return s.Spectrum[2*i]
}

// Imag returns the imaginary part of bin i.
func (s *FrequencySpectrum) Imag(i int) float64 {
	return s.Spectrum[2*i+1]
}

// Phase returns the phase of bin i in radians.
func (s *FrequencySpectrum) Phase(i int) float64 {
	return math.Atan2(s.Imag(i), s.Real(i))
}

// Time returns the stream time at the end of the source frame in seconds.
func (s *FrequencySpectrum) Time() float64 {
	return float64(s.FramePosition+int64(2*(s.Size-1))) * s.Dt
}
