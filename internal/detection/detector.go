// Package detection finds the fundamental frequency of a frame from its harmonic structure.
package detection

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/farcloser/diapason/internal/harmonics"
	"github.com/farcloser/diapason/internal/signal"
	"github.com/farcloser/diapason/internal/spectrum"
	"github.com/farcloser/diapason/internal/types"
)

// A competing hypothesis must carry this much more harmonic energy to replace the current best.
const hypothesisMargin = 0.01

// Options configures a Detector.
type Options struct {
	FrequencyMin float64
	FrequencyMax float64
	// MaxHarmonicNumber bounds the harmonic numbers tried for the strongest peak.
	MaxHarmonicNumber int
	// MaxHarmonics bounds the harmonics collected per hypothesis.
	MaxHarmonics int
	// MinPeakLevelDb is the level in dBFS below which a sine is considered noise.
	MinPeakLevelDb float64
	Search         harmonics.SearchOptions
}

// DefaultOptions returns the detector defaults.
func DefaultOptions() Options {
	return Options{
		FrequencyMin:      25,
		FrequencyMax:      8000,
		MaxHarmonicNumber: 6,
		MaxHarmonics:      32,
		MinPeakLevelDb:    -70,
		Search:            harmonics.DefaultSearchOptions(),
	}
}

// Detector analyzes consecutive frames of one stream. It keeps the previous spectrum to refine
// peak frequencies and is not safe for concurrent use.
type Detector struct {
	opts     Options
	analyzer *spectrum.Analyzer
	current  *spectrum.FrequencySpectrum
	previous *spectrum.FrequencySpectrum
	primed   bool
	best     *harmonics.Harmonics
	scratch  *harmonics.Harmonics
	gate     float64
}

// NewDetector returns a Detector for frames of the window size sampled at sampleRate.
func NewDetector(window *signal.Window, backend spectrum.Backend, sampleRate int, opts Options) *Detector {
	analyzer := spectrum.NewAnalyzer(window, backend)

	// A Hann windowed sine of amplitude A peaks at about A^2/64 in the squared amplitude spectrum.
	level := math.Pow(10, opts.MinPeakLevelDb/20)

	return &Detector{
		opts:     opts,
		analyzer: analyzer,
		current:  analyzer.NewSpectrum(sampleRate),
		previous: analyzer.NewSpectrum(sampleRate),
		best:     harmonics.New(opts.MaxHarmonics),
		scratch:  harmonics.New(opts.MaxHarmonics),
		gate:     level * level / 64,
	}
}

// Detect analyzes ts and returns its fundamental, or a result with Frequency 0.
func (d *Detector) Detect(ts *signal.TimeSeries) types.FrequencyDetectionResult {
	d.previous, d.current = d.current, d.previous
	d.analyzer.Compute(ts, d.current)

	var previous *spectrum.FrequencySpectrum
	if d.primed {
		previous = d.previous
	}

	d.primed = true
	d.best.Clear()

	result := types.FrequencyDetectionResult{
		FramePosition: ts.FramePosition,
		Time:          ts.EndTime(),
	}

	amplitudes := d.current.AmplitudeSpectrumSquared
	begin, end := harmonics.BandIndices(d.opts.FrequencyMin, d.opts.FrequencyMax, d.current)

	globalMax := harmonics.BandMaximum(d.opts.FrequencyMin, d.opts.FrequencyMax, d.current)
	if globalMax < 0 {
		return result
	}

	if amplitudes[globalMax] < d.gate {
		result.NoiseGated = true

		return result
	}

	estimator := d.estimator(previous)
	anchor := harmonics.Harmonic{
		Frequency:                estimator.Frequency(globalMax),
		SpectrumIndex:            globalMax,
		SpectrumAmplitudeSquared: amplitudes[globalMax],
	}

	var bestScore float64

	for number := 1; number <= d.opts.MaxHarmonicNumber; number++ {
		if anchor.Frequency/float64(number) < d.opts.FrequencyMin {
			break
		}

		anchor.HarmonicNumber = number
		harmonics.FindFromAnchor(
			d.scratch, anchor, d.opts.FrequencyMin, d.opts.FrequencyMax, d.current, globalMax, estimator, d.opts.Search,
		)

		if d.scratch.Len() == 0 || d.scratch.HasCommonDivisors() {
			continue
		}

		if score := d.scratch.AmplitudeSquaredSum(); score > bestScore*(1+hypothesisMargin) {
			d.best, d.scratch = d.scratch, d.best
			bestScore = score
		}
	}

	if d.best.Len() == 0 {
		return result
	}

	result.Frequency = fitFundamental(d.best)
	result.Harmonics = d.best.Snapshot()

	if bandEnergy := floats.Sum(amplitudes[begin:end]); bandEnergy > 0 {
		result.Confidence = math.Min(1, bestScore/bandEnergy)
	}

	return result
}

func (d *Detector) estimator(previous *spectrum.FrequencySpectrum) harmonics.FrequencyEstimator {
	if previous == nil {
		return parabolicEstimator{spec: d.current}
	}

	return spectrum.NewAccurateSpectrumPeakFrequency(d.current, previous)
}

type parabolicEstimator struct {
	spec *spectrum.FrequencySpectrum
}

func (p parabolicEstimator) Frequency(index int) float64 {
	return spectrum.ParabolicPeakFrequency(p.spec.AmplitudeSpectrumSquared, index, p.spec.Df)
}

// fitFundamental returns the energy weighted least squares f0 minimizing sum(w*(f - n*f0)^2).
func fitFundamental(c *harmonics.Harmonics) float64 {
	var num, den float64

	for h := range c.All() {
		n := float64(h.HarmonicNumber)
		num += h.SpectrumAmplitudeSquared * n * h.Frequency
		den += h.SpectrumAmplitudeSquared * n * n
	}

	if den == 0 {
		return 0
	}

	return num / den
}
