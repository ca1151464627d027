//nolint:wrapcheck
package diapason

import (
	"context"
	"fmt"
	"io"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/diapason/internal/evaluation"
	"github.com/farcloser/diapason/internal/pcm"
	"github.com/farcloser/diapason/internal/pipeline"
	"github.com/farcloser/diapason/internal/types"
)

/*
Usage:

result, err := diapason.Analyze(ctx, factory, format, diapason.DefaultOptions())
fmt.Println(result.Summary.Target.Note, result.Summary.MeanCents)

// Instrument preset with a fixed target
opts, err := diapason.OptionsForInstrument("guitar")
opts.Target = "E2"
result, err := diapason.Analyze(ctx, factory, format, opts)

// Streaming
results := make(chan diapason.FrameResult)
go func() { err = diapason.Listen(ctx, samples, 48000, opts, results) }()
for res := range results {
    fmt.Println(res.State, res.Cents)
}

*/

// Check represents a high-level tuning check over a finite stream.
type Check int

const (
	CheckDeviation Check = 1 << iota
	CheckStability

	// Presets.
	ChecksAll = CheckDeviation | CheckStability
)

func (c Check) String() string {
	switch c {
	case CheckDeviation:
		return "deviation"
	case CheckStability:
		return "stability"
	}

	return "unknown"
}

// Severity indicates how bad a detected issue is.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "no issue"
	case SeverityMild:
		return "mild"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	}

	return "unknown"
}

// Issue represents a detected problem.
type Issue struct {
	Check      Check
	Detected   bool
	Severity   Severity
	Summary    string  // human-readable summary
	Confidence float64 // 0.0-1.0
}

// Bands defines severity thresholds for a check. Direction is implicit:
// if Mild < Severe, higher values are worse (ascending, e.g. cents off).
// If Mild > Severe, lower values are worse (descending).
type Bands struct {
	Mild     float64
	Moderate float64
	Severe   float64
}

// Match returns the severity for a value.
// Returns (SeverityNone, false) when the value is below detection (the Mild threshold).
func (b Bands) Match(value float64) (Severity, bool) {
	if b.Mild <= b.Severe {
		// Ascending: higher = worse.
		if value >= b.Severe {
			return SeveritySevere, true
		}

		if value >= b.Moderate {
			return SeverityModerate, true
		}

		if value >= b.Mild {
			return SeverityMild, true
		}
	} else {
		// Descending: lower = worse.
		if value <= b.Severe {
			return SeveritySevere, true
		}

		if value <= b.Moderate {
			return SeverityModerate, true
		}

		if value <= b.Mild {
			return SeverityMild, true
		}
	}

	return SeverityNone, false
}

// Result contains all analysis results.
type Result struct {
	// High-level issues (what the user asked for)
	Issues []Issue

	// Quick access booleans
	IsOutOfTune bool
	IsUnstable  bool

	// Summary
	IssueCount    int
	WorstSeverity Severity

	Summary  Summary
	Resolved *Resolved

	// PitchHistory holds the latest smoothed frequencies, oldest first, over at most
	// Options.PitchHistoryDuration seconds of frames.
	PitchHistory []float64

	// Per-frame results, nil unless Options.KeepFrames is set.
	Frames []FrameResult
}

// ReaderFactory provides a fresh reader over the raw PCM stream.
type ReaderFactory func() (io.Reader, error)

// Listen runs the pipeline over src until it is exhausted or ctx is cancelled.
// One result per frame is sent on results, which is closed when Listen returns.
func Listen(ctx context.Context, src SampleReader, sampleRate int, opts Options, results chan<- FrameResult) error {
	resolved, err := opts.Resolve(sampleRate)
	if err != nil {
		close(results)

		return err
	}

	return pipeline.Run(ctx, src, resolved.config, results)
}

// Analyze decodes raw PCM from factory and analyzes it.
func Analyze(ctx context.Context, factory ReaderFactory, format types.PCMFormat, opts Options) (*Result, error) {
	r, err := factory()
	if err != nil {
		return nil, err
	}

	if closer, ok := r.(io.Closer); ok {
		defer closer.Close()
	}

	src, err := pcm.NewReader(r, format)
	if err != nil {
		return nil, err
	}

	return AnalyzeSamples(ctx, src, format.SampleRate, opts)
}

// AnalyzeSamples analyzes a finite stream of mono samples.
func AnalyzeSamples(ctx context.Context, src SampleReader, sampleRate int, opts Options) (*Result, error) {
	if opts.Checks == 0 {
		opts.Checks = ChecksAll
	}

	applyDefaults(&opts)

	resolved, err := opts.Resolve(sampleRate)
	if err != nil {
		return nil, err
	}

	cfg := resolved.config
	cfg.History = evaluation.NewPitchHistory(resolved.HistorySize)

	results := make(chan FrameResult, 1)
	errs := make(chan error, 1)

	go func() {
		errs <- pipeline.Run(ctx, src, cfg, results)
	}()

	acc := newAccumulator()

	var frames []FrameResult

	for res := range results {
		acc.add(res)

		if opts.KeepFrames {
			frames = append(frames, res)
		}
	}

	if err = <-errs; err != nil {
		return nil, err
	}

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Summary:      acc.summary(),
		Resolved:     resolved,
		PitchHistory: cfg.History.Values(),
		Frames:       frames,
	}

	interpretResults(result, opts)

	return result, nil
}

type accumulator struct {
	frames      int
	duration    float64
	smoothed    []float64
	cents       []float64
	confidences []float64
	inTune      int
	targets     map[string]int
	firstTarget map[string]*TuningTarget
}

func newAccumulator() *accumulator {
	return &accumulator{
		targets:     map[string]int{},
		firstTarget: map[string]*TuningTarget{},
	}
}

func (a *accumulator) add(res FrameResult) {
	a.frames++
	a.duration = max(a.duration, res.Detection.Time)

	if res.Detection.Frequency > 0 {
		a.confidences = append(a.confidences, res.Detection.Confidence)

		if res.Evaluation.SmoothedFrequency > 0 {
			a.smoothed = append(a.smoothed, res.Evaluation.SmoothedFrequency)
		}
	}

	if res.State == types.TuningUnknown {
		return
	}

	a.cents = append(a.cents, res.Cents)

	if res.State == types.TuningInTune {
		a.inTune++
	}

	if target := res.Target; target != nil {
		key := target.Note.String()
		a.targets[key]++

		if _, ok := a.firstTarget[key]; !ok {
			a.firstTarget[key] = target
		}
	}
}

func (a *accumulator) summary() Summary {
	summary := Summary{
		Frames:      a.frames,
		ValidFrames: len(a.confidences),
		Duration:    a.duration,
	}

	if len(a.smoothed) > 0 {
		sorted := slices.Clone(a.smoothed)
		slices.Sort(sorted)
		summary.MedianFrequency = stat.Quantile(0.5, stat.Empirical, sorted, nil) //nolint:mnd
	}

	if len(a.confidences) > 0 {
		summary.MeanConfidence = stat.Mean(a.confidences, nil)
	}

	if len(a.cents) > 0 {
		summary.MeanCents = stat.Mean(a.cents, nil)
		summary.InTuneRatio = float64(a.inTune) / float64(len(a.cents))
	}

	if len(a.cents) > 1 {
		summary.StdDevCents = stat.StdDev(a.cents, nil)
	}

	best := 0

	for key, count := range a.targets {
		// Ties go to the lowest note name for a stable result.
		if count > best || (count == best && summary.Target != nil && key < summary.Target.Note.String()) {
			best = count
			summary.Target = a.firstTarget[key]
		}
	}

	return summary
}

func interpretResults(result *Result, opts Options) {
	summary := result.Summary
	classified := summary.Target != nil

	// Deviation
	if classified && opts.Checks&CheckDeviation != 0 {
		deviation := math.Abs(summary.MeanCents)
		severity, detected := opts.Deviation.Match(deviation)

		direction := "sharp"
		if summary.MeanCents < 0 {
			direction = "flat"
		}

		var summaryText string

		switch severity {
		case SeverityNone:
			summaryText = fmt.Sprintf("In tune with %s (%+.1f cents)", summary.Target.Note, summary.MeanCents)
		case SeverityMild:
			summaryText = fmt.Sprintf("Slightly %s of %s (%+.1f cents)", direction, summary.Target.Note, summary.MeanCents)
		case SeverityModerate:
			summaryText = fmt.Sprintf("Out of tune, %s of %s (%+.1f cents)", direction, summary.Target.Note,
				summary.MeanCents)
		case SeveritySevere:
			summaryText = fmt.Sprintf("Far %s of %s (%+.1f cents)", direction, summary.Target.Note, summary.MeanCents)
		}

		result.IsOutOfTune = detected
		result.Issues = append(result.Issues, Issue{
			Check:      CheckDeviation,
			Detected:   detected,
			Severity:   severity,
			Summary:    summaryText,
			Confidence: summary.MeanConfidence,
		})
	}

	// Stability
	if classified && opts.Checks&CheckStability != 0 {
		severity, detected := opts.Stability.Match(summary.StdDevCents)

		var summaryText string

		switch severity {
		case SeverityNone:
			summaryText = fmt.Sprintf("Stable pitch (%.1f cents spread)", summary.StdDevCents)
		case SeverityMild, SeverityModerate:
			summaryText = fmt.Sprintf("Wavering pitch (%.1f cents spread)", summary.StdDevCents)
		case SeveritySevere:
			summaryText = fmt.Sprintf("Unstable pitch (%.1f cents spread)", summary.StdDevCents)
		}

		result.IsUnstable = detected
		result.Issues = append(result.Issues, Issue{
			Check:      CheckStability,
			Detected:   detected,
			Severity:   severity,
			Summary:    summaryText,
			Confidence: summary.MeanConfidence,
		})
	}

	// Calculate summary stats
	for _, issue := range result.Issues {
		if issue.Detected {
			result.IssueCount++
		}

		if issue.Severity > result.WorstSeverity {
			result.WorstSeverity = issue.Severity
		}
	}
}
