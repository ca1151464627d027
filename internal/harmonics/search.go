package harmonics

import (
	"math"

	"github.com/farcloser/diapason/internal/peaks"
	"github.com/farcloser/diapason/internal/spectrum"
)

// FrequencyEstimator refines the frequency of the peak at a spectrum bin.
type FrequencyEstimator interface {
	Frequency(index int) float64
}

// SearchOptions tunes the harmonic search.
type SearchOptions struct {
	// HarmonicTolerance is the accepted deviation of a harmonic from n*f0, as a fraction of f0.
	HarmonicTolerance float64
	// MaxNumFail is the number of consecutive missing harmonics tolerated before a search
	// direction stops.
	MaxNumFail int
	// MinPeakRatio is the minimum ratio of a harmonic peak over the mean of its neighborhood.
	MinPeakRatio float64
	// RelativeFloor is the minimum amplitude squared of a harmonic relative to the global maximum.
	RelativeFloor float64
}

// DefaultSearchOptions returns the defaults used by the detector.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		HarmonicTolerance: 0.1,
		MaxNumFail:        0,
		MinPeakRatio:      2,
		RelativeFloor:     1e-4,
	}
}

// BandIndices converts a frequency band into a [begin, end) bin range of spec.
func BandIndices(freqMin, freqMax float64, spec *spectrum.FrequencySpectrum) (int, int) {
	begin := max(int(math.Ceil(freqMin/spec.Df)), 0)
	end := min(int(math.Floor(freqMax/spec.Df))+1, spec.Size)

	return begin, end
}

// BandMaximum returns the bin of the strongest peak inside [freqMin, freqMax], or -1.
//
// The scan covers one extra bin on each side of the band, so a peak on the first or last band bin
// is still recognized as a peak while a slope rising past the band edge is not.
func BandMaximum(freqMin, freqMax float64, spec *spectrum.FrequencySpectrum) int {
	begin, end := BandIndices(freqMin, freqMax, spec)
	if begin >= end {
		return -1
	}

	idx := peaks.FindGlobalMaximumIndex(max(begin-1, 0), min(end+1, spec.Size), spec.AmplitudeSpectrumSquared)
	if idx < begin || idx >= end {
		return -1
	}

	return idx
}

// FindFromSpectrum replaces the content of c with the harmonics of fundamental found in spec.
//
// The search is anchored on the global maximum of the band [freqMin, freqMax]; when that peak is
// not within tolerance of a harmonic of fundamental, c is left empty.
func FindFromSpectrum(
	c *Harmonics,
	fundamental, freqMin, freqMax float64,
	spec *spectrum.FrequencySpectrum,
	estimator FrequencyEstimator,
	opts SearchOptions,
) {
	c.Clear()

	if fundamental <= 0 {
		return
	}

	globalMax := BandMaximum(freqMin, freqMax, spec)
	if globalMax < 0 {
		return
	}

	freq := estimator.Frequency(globalMax)
	number := int(math.Round(freq / fundamental))

	if number < 1 || math.Abs(freq-float64(number)*fundamental) > opts.HarmonicTolerance*fundamental {
		return
	}

	anchor := Harmonic{
		HarmonicNumber:           number,
		Frequency:                freq,
		SpectrumIndex:            globalMax,
		SpectrumAmplitudeSquared: spec.AmplitudeSpectrumSquared[globalMax],
	}

	walk(c, anchor, fundamental, freqMin, freqMax, spec, globalMax, estimator, opts)
}

// FindFromAnchor replaces the content of c with the harmonics related to a known harmonic.
// The fundamental is anchor.Frequency / anchor.HarmonicNumber. globalMaxIndex is the bin used as
// amplitude reference for RelativeFloor, or -1 to disable the floor.
func FindFromAnchor(
	c *Harmonics,
	anchor Harmonic,
	freqMin, freqMax float64,
	spec *spectrum.FrequencySpectrum,
	globalMaxIndex int,
	estimator FrequencyEstimator,
	opts SearchOptions,
) {
	c.Clear()

	if anchor.HarmonicNumber < 1 || anchor.Frequency <= 0 {
		return
	}

	fundamental := anchor.Frequency / float64(anchor.HarmonicNumber)

	walk(c, anchor, fundamental, freqMin, freqMax, spec, globalMaxIndex, estimator, opts)
}

func walk(
	c *Harmonics,
	anchor Harmonic,
	fundamental, freqMin, freqMax float64,
	spec *spectrum.FrequencySpectrum,
	globalMaxIndex int,
	estimator FrequencyEstimator,
	opts SearchOptions,
) {
	amplitudes := spec.AmplitudeSpectrumSquared

	if !c.Add(anchor) {
		return
	}

	var floor float64
	if globalMaxIndex >= 0 && globalMaxIndex < len(amplitudes) {
		floor = opts.RelativeFloor * amplitudes[globalMaxIndex]
	}

	tolerance := opts.HarmonicTolerance * fundamental
	radius := math.Max(tolerance/spec.Df, 1)
	halfWidth := max(int(0.5*fundamental/spec.Df), 2)

	for _, step := range []int{-1, 1} {
		fails := 0

		for number := anchor.HarmonicNumber + step; number >= 1; number += step {
			target := float64(number) * fundamental
			if target < freqMin || target > freqMax {
				break
			}

			found := false

			idx := peaks.FindLocalMaximumIndex(amplitudes, target/spec.Df, radius, opts.MinPeakRatio, halfWidth)
			if idx >= 0 && amplitudes[idx] >= floor && !c.usesIndex(idx) {
				freq := estimator.Frequency(idx)
				if math.Abs(freq-target) <= tolerance {
					found = c.Add(Harmonic{
						HarmonicNumber:           number,
						Frequency:                freq,
						SpectrumIndex:            idx,
						SpectrumAmplitudeSquared: amplitudes[idx],
					})
				}
			}

			if c.Full() {
				return
			}

			if found {
				fails = 0

				continue
			}

			fails++
			if fails > opts.MaxNumFail {
				break
			}
		}
	}
}
