package spectrum

import "math"

// AccurateSpectrumPeakFrequency refines the frequency of a spectral peak.
//
// Without a previous spectrum the estimate is the bin frequency. With a previous spectrum of the
// same size taken earlier in the stream, the phase advance of the bin between both frames is
// converted into a frequency; the phase ambiguity is resolved with a log-magnitude parabolic
// interpolation over the three bins around the peak.
type AccurateSpectrumPeakFrequency struct {
	spectrum  *FrequencySpectrum
	previous  *FrequencySpectrum
	timeShift float64
}

// NewAccurateSpectrumPeakFrequency binds an estimator to spectrum; previous may be nil.
func NewAccurateSpectrumPeakFrequency(spectrum, previous *FrequencySpectrum) *AccurateSpectrumPeakFrequency {
	acc := &AccurateSpectrumPeakFrequency{spectrum: spectrum}

	if previous != nil && previous.Size == spectrum.Size && previous.FramePosition < spectrum.FramePosition {
		acc.previous = previous
		acc.timeShift = float64(spectrum.FramePosition-previous.FramePosition) * spectrum.Dt
	}

	return acc
}

// Frequency returns the refined frequency in Hz of the peak at bin index.
func (a *AccurateSpectrumPeakFrequency) Frequency(index int) float64 {
	spec := a.spectrum
	coarse := float64(index) * spec.Df

	if a.previous == nil || a.timeShift <= 0 || index <= 0 || index >= spec.Size-1 {
		return coarse
	}

	estimate := ParabolicPeakFrequency(spec.AmplitudeSpectrumSquared, index, spec.Df)

	if spec.AmplitudeSpectrumSquared[index] <= 0 || a.previous.AmplitudeSpectrumSquared[index] <= 0 {
		return estimate
	}

	// Fraction of a cycle the bin phase advanced, wrapped to [-0.5, 0.5].
	advance := (spec.Phase(index) - a.previous.Phase(index)) / (2 * math.Pi)
	advance -= math.Round(advance)

	cycles := math.Round(estimate*a.timeShift - advance)
	refined := (cycles + advance) / a.timeShift

	if math.Abs(refined-estimate) > spec.Df {
		return estimate
	}

	return refined
}

// ParabolicPeakFrequency interpolates the peak at index with a parabola through the logarithm of
// the three bins around it. It falls back to the bin frequency at the edges or with empty bins.
func ParabolicPeakFrequency(amplitudes []float64, index int, df float64) float64 {
	coarse := float64(index) * df

	if index <= 0 || index >= len(amplitudes)-1 {
		return coarse
	}

	left, center, right := amplitudes[index-1], amplitudes[index], amplitudes[index+1]
	if left <= 0 || center <= 0 || right <= 0 {
		return coarse
	}

	l, c, r := math.Log(left), math.Log(center), math.Log(right)

	den := l - 2*c + r
	if den >= 0 {
		return coarse
	}

	offset := math.Max(-1, math.Min(1, 0.5*(l-r)/den))

	return (float64(index) + offset) * df
}
