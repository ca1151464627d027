package diapason

import (
	"errors"
	"fmt"
	"math"

	"github.com/farcloser/diapason/internal/detection"
	"github.com/farcloser/diapason/internal/evaluation"
	"github.com/farcloser/diapason/internal/harmonics"
	"github.com/farcloser/diapason/internal/pipeline"
	"github.com/farcloser/diapason/internal/signal"
	"github.com/farcloser/diapason/internal/spectrum"
	"github.com/farcloser/diapason/internal/temperament"
	"github.com/farcloser/diapason/internal/types"
)

var (
	ErrInvalidSampleRate     = errors.New("invalid sample rate")
	ErrInvalidWindowSize     = errors.New("invalid window size")
	ErrInvalidTolerance      = errors.New("invalid tolerance")
	ErrInvalidOverlap        = errors.New("invalid overlap")
	ErrInvalidFrequencyRange = errors.New("invalid frequency range")
	ErrInvalidTarget         = errors.New("invalid target note")

	ErrUnknownTemperament = temperament.ErrUnknownTemperament
	ErrUnknownInstrument  = temperament.ErrUnknownInstrument
	ErrUnknownWindow      = signal.ErrUnknownWindow
	ErrUnknownTransform   = spectrum.ErrUnknownBackend
)

const (
	minWindowSizeExponent = 7
	maxWindowSizeIndex    = 7
	maxOverlap            = 0.95
	maxToleranceCents     = 50
)

//nolint:gochecknoglobals // preference table, effectively const
var tolerancePresets = []float64{1, 2, 3, 5, 7, 10, 15, 20}

// WindowSizeFromIndex maps a window size preference index (0 to 7) to 2^(7+index) samples.
func WindowSizeFromIndex(index int) (int, error) {
	if index < 0 || index > maxWindowSizeIndex {
		return 0, fmt.Errorf("%w: index %d (valid: 0-%d)", ErrInvalidWindowSize, index, maxWindowSizeIndex)
	}

	return 1 << (minWindowSizeExponent + index), nil
}

// ToleranceFromIndex maps a tolerance preference index to cents.
func ToleranceFromIndex(index int) (float64, error) {
	if index < 0 || index >= len(tolerancePresets) {
		return 0, fmt.Errorf("%w: index %d (valid: 0-%d)", ErrInvalidTolerance, index, len(tolerancePresets)-1)
	}

	return tolerancePresets[index], nil
}

// PitchHistoryDurationFromPercent maps a 0-100 slider position to seconds of pitch history.
// 50 is three seconds, every 20 points double or halve it.
func PitchHistoryDurationFromPercent(percent float64) float64 {
	return 3 * math.Pow(2, 0.05*(percent-50)) //nolint:mnd
}

// Options configures pitch detection and the summary checks.
type Options struct {
	Checks Check // which checks to run (default: ChecksAll)

	// Severity bands per check (zero value = use defaults).
	Deviation Bands // absolute mean deviation in cents
	Stability Bands // standard deviation in cents

	// Framing.
	WindowSize int     // samples, power of two from 128 to 16384 (default 4096)
	Overlap    float64 // fraction of a window shared by consecutive frames, 0 to 0.95 (default 0.25)
	Window     string  // window function (default hann)
	Transform  string  // FFT backend: gonum, godsp (default gonum)

	// Tuning.
	ToleranceCents       float64 // default 5
	PitchHistoryDuration float64 // seconds (default 3)
	Temperament          string  // default edo12
	ReferenceFrequency   float64 // A4 in Hz (default 440)
	Instrument           string  // default chromatic
	Target               string  // fixed target note such as "A4"; empty follows the detected pitch

	// Smoothing.
	SmoothingWindow int     // frames averaged (default 5)
	NumFaultyValues int     // consecutive outliers tolerated before the average restarts (default 3)
	OutlierCents    float64 // distance from the average beyond which a value is an outlier (default 50)

	// Detection.
	FrequencyMin      float64 // Hz (default 25)
	FrequencyMax      float64 // Hz, clamped to Nyquist (default 8000)
	HarmonicTolerance float64 // fraction of the fundamental (default 0.1)
	MaxNumFail        int     // consecutive missing harmonics tolerated (default 1)
	MaxHarmonicNumber int     // highest harmonic number the strongest peak may be (default 6)
	MinPeakLevelDb    float64 // noise gate in dBFS (default -70)

	// KeepFrames retains every frame result in Result.Frames.
	KeepFrames bool
}

// DefaultOptions returns options for chromatic tuning.
func DefaultOptions() Options {
	det := detection.DefaultOptions()

	return Options{
		Checks:    ChecksAll,
		Deviation: Bands{Mild: 5, Moderate: 15, Severe: 30},
		Stability: Bands{Mild: 5, Moderate: 10, Severe: 20},

		WindowSize: 4096,
		Overlap:    0.25,
		Window:     signal.WindowHann.String(),
		Transform:  spectrum.BackendGonum.String(),

		ToleranceCents:       5,
		PitchHistoryDuration: 3,
		Temperament:          "edo12",
		ReferenceFrequency:   temperament.DefaultReferenceFrequency,
		Instrument:           "chromatic",

		SmoothingWindow: 5,
		NumFaultyValues: 3,
		OutlierCents:    50,

		FrequencyMin:      det.FrequencyMin,
		FrequencyMax:      det.FrequencyMax,
		HarmonicTolerance: det.Search.HarmonicTolerance,
		MaxNumFail:        1,
		MaxHarmonicNumber: det.MaxHarmonicNumber,
		MinPeakLevelDb:    det.MinPeakLevelDb,
	}
}

// OptionsForInstrument returns the default Options narrowed to the range of an instrument.
// Low-pitched instruments get a longer window so that their fundamentals span enough bins.
func OptionsForInstrument(name string) (Options, error) {
	instrument, err := temperament.ParseInstrument(name)
	if err != nil {
		return Options{}, err
	}

	opts := DefaultOptions()
	opts.Instrument = instrument.Name

	switch instrument.Name {
	case "bass":
		opts.WindowSize = 8192
		opts.FrequencyMin = 25
		opts.FrequencyMax = 2000
	case "cello":
		opts.WindowSize = 8192
		opts.FrequencyMin = 50
		opts.FrequencyMax = 4000
	case "guitar":
		opts.FrequencyMin = 60
		opts.FrequencyMax = 5000
	case "viola", "violin":
		opts.WindowSize = 2048
		opts.FrequencyMin = 100
	case "ukulele":
		opts.WindowSize = 2048
		opts.FrequencyMin = 200
	}

	return opts, nil
}

func applyDefaults(opts *Options) {
	defaults := DefaultOptions()
	zeroBands := Bands{}

	if opts.Deviation == zeroBands {
		opts.Deviation = defaults.Deviation
	}

	if opts.Stability == zeroBands {
		opts.Stability = defaults.Stability
	}

	if opts.WindowSize == 0 {
		opts.WindowSize = defaults.WindowSize
	}

	if opts.ToleranceCents == 0 {
		opts.ToleranceCents = defaults.ToleranceCents
	}

	if opts.PitchHistoryDuration == 0 {
		opts.PitchHistoryDuration = defaults.PitchHistoryDuration
	}

	if opts.ReferenceFrequency == 0 {
		opts.ReferenceFrequency = defaults.ReferenceFrequency
	}

	if opts.SmoothingWindow == 0 {
		opts.SmoothingWindow = defaults.SmoothingWindow
	}

	if opts.OutlierCents == 0 {
		opts.OutlierCents = defaults.OutlierCents
	}

	if opts.FrequencyMin == 0 {
		opts.FrequencyMin = defaults.FrequencyMin
	}

	if opts.FrequencyMax == 0 {
		opts.FrequencyMax = defaults.FrequencyMax
	}

	if opts.HarmonicTolerance == 0 {
		opts.HarmonicTolerance = defaults.HarmonicTolerance
	}

	if opts.MaxHarmonicNumber == 0 {
		opts.MaxHarmonicNumber = defaults.MaxHarmonicNumber
	}

	if opts.MinPeakLevelDb == 0 {
		opts.MinPeakLevelDb = defaults.MinPeakLevelDb
	}
}

// Resolved is a validated configuration for one sample rate.
type Resolved struct {
	SampleRate     int
	WindowSize     int
	Hop            int
	ToleranceCents float64
	HistorySize    int
	Temperament    string
	Instrument     string
	FrequencyMin   float64
	FrequencyMax   float64

	config pipeline.Config
}

// Resolve validates opts against a sample rate. Zero-valued fields take their defaults first.
func (opts Options) Resolve(sampleRate int) (*Resolved, error) {
	applyDefaults(&opts)

	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	if !validWindowSize(opts.WindowSize) {
		return nil, fmt.Errorf("%w: %d (power of two from %d to %d)", ErrInvalidWindowSize, opts.WindowSize,
			1<<minWindowSizeExponent, 1<<(minWindowSizeExponent+maxWindowSizeIndex))
	}

	if opts.Overlap < 0 || opts.Overlap >= maxOverlap {
		return nil, fmt.Errorf("%w: %v (valid: 0 to %v)", ErrInvalidOverlap, opts.Overlap, maxOverlap)
	}

	if opts.ToleranceCents < 0 || opts.ToleranceCents > maxToleranceCents {
		return nil, fmt.Errorf("%w: %v cents (valid: up to %d)", ErrInvalidTolerance, opts.ToleranceCents,
			maxToleranceCents)
	}

	nyquist := float64(sampleRate) / 2 //nolint:mnd
	fMax := min(opts.FrequencyMax, nyquist)

	if opts.FrequencyMin < 0 || opts.FrequencyMin >= fMax {
		return nil, fmt.Errorf("%w: %v-%v Hz at %d Hz sample rate", ErrInvalidFrequencyRange,
			opts.FrequencyMin, opts.FrequencyMax, sampleRate)
	}

	window, err := signal.ParseWindow(opts.Window)
	if err != nil {
		return nil, err
	}

	backend, err := spectrum.ParseBackend(opts.Transform)
	if err != nil {
		return nil, err
	}

	scale, err := temperament.NewTemperament(opts.Temperament, opts.ReferenceFrequency)
	if err != nil {
		return nil, err
	}

	instrument, err := temperament.ParseInstrument(opts.Instrument)
	if err != nil {
		return nil, err
	}

	var fixed *types.MusicalNote

	if opts.Target != "" {
		note, noteErr := temperament.ParseNote(opts.Target)
		if noteErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidTarget, noteErr)
		}

		fixed = &note
	}

	resolver, err := temperament.NewResolver(scale, instrument, fixed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}

	hop := signal.HopSize(opts.WindowSize, opts.Overlap)
	historySize := evaluation.PitchHistorySize(opts.PitchHistoryDuration, sampleRate, hop)

	det := detection.DefaultOptions()
	det.FrequencyMin = opts.FrequencyMin
	det.FrequencyMax = fMax
	det.MaxHarmonicNumber = opts.MaxHarmonicNumber
	det.MinPeakLevelDb = opts.MinPeakLevelDb
	det.Search = harmonics.SearchOptions{
		HarmonicTolerance: opts.HarmonicTolerance,
		MaxNumFail:        opts.MaxNumFail,
		MinPeakRatio:      det.Search.MinPeakRatio,
		RelativeFloor:     det.Search.RelativeFloor,
	}

	return &Resolved{
		SampleRate:     sampleRate,
		WindowSize:     opts.WindowSize,
		Hop:            hop,
		ToleranceCents: opts.ToleranceCents,
		HistorySize:    historySize,
		Temperament:    scale.Name(),
		Instrument:     instrument.Name,
		FrequencyMin:   opts.FrequencyMin,
		FrequencyMax:   fMax,
		config: pipeline.Config{
			SampleRate: sampleRate,
			FrameSize:  opts.WindowSize,
			Hop:        hop,
			Window:     window,
			Backend:    backend,
			Detection:  det,
			Evaluation: evaluation.Options{
				SmoothingWindow: opts.SmoothingWindow,
				NumFaultyValues: opts.NumFaultyValues,
				OutlierCents:    opts.OutlierCents,
				FrameAdvance:    float64(hop) / float64(sampleRate),
				ResetAfter:      evaluation.InactivityThreshold,
			},
			Resolver:       resolver,
			ToleranceCents: opts.ToleranceCents,
			HistorySize:    historySize,
		},
	}, nil
}

func validWindowSize(size int) bool {
	return size >= 1<<minWindowSizeExponent &&
		size <= 1<<(minWindowSizeExponent+maxWindowSizeIndex) &&
		size&(size-1) == 0
}
