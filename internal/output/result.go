// Package output provides shared result serialization for diapason JSON output.
package output

import (
	"github.com/farcloser/diapason"
	"github.com/farcloser/diapason/internal/types"
)

// ResultToMap converts an analysis result into the canonical map structure
// used for JSON and JSONL serialization.
func ResultToMap(result *diapason.Result) map[string]any {
	summary := result.Summary

	meta := map[string]any{
		"summary": map[string]any{
			"issue_count":      result.IssueCount,
			"worst_severity":   result.WorstSeverity.String(),
			"frames":           summary.Frames,
			"valid_frames":     summary.ValidFrames,
			"duration":         summary.Duration,
			"median_frequency": summary.MedianFrequency,
			"mean_cents":       summary.MeanCents,
			"stddev_cents":     summary.StdDevCents,
			"in_tune_ratio":    summary.InTuneRatio,
			"mean_confidence":  summary.MeanConfidence,
		},
	}

	if summary.Target != nil {
		meta["target"] = TargetToMap(summary.Target)
	}

	// Issues.
	issues := make([]any, 0, len(result.Issues))
	for _, issue := range result.Issues {
		issues = append(issues, map[string]any{
			"check":      issue.Check.String(),
			"detected":   issue.Detected,
			"severity":   issue.Severity.String(),
			"summary":    issue.Summary,
			"confidence": issue.Confidence,
		})
	}

	meta["issues"] = issues

	if r := result.Resolved; r != nil {
		meta["config"] = map[string]any{
			"sample_rate":     r.SampleRate,
			"window_size":     r.WindowSize,
			"hop":             r.Hop,
			"tolerance_cents": r.ToleranceCents,
			"temperament":     r.Temperament,
			"instrument":      r.Instrument,
			"frequency_min":   r.FrequencyMin,
			"frequency_max":   r.FrequencyMax,
		}
	}

	if len(result.PitchHistory) > 0 {
		meta["pitch_history"] = result.PitchHistory
	}

	if result.Frames != nil {
		frames := make([]any, 0, len(result.Frames))
		for _, frame := range result.Frames {
			frames = append(frames, FrameToMap(frame))
		}

		meta["frames"] = frames
	}

	return meta
}

// FrameToMap converts a frame result, as printed by listen in JSON mode.
func FrameToMap(frame types.FrameResult) map[string]any {
	meta := map[string]any{
		"position":             frame.Detection.FramePosition,
		"time":                 frame.Detection.Time,
		"frequency":            frame.Detection.Frequency,
		"confidence":           frame.Detection.Confidence,
		"noise_gated":          frame.Detection.NoiseGated,
		"smoothed":             frame.Evaluation.SmoothedFrequency,
		"time_since_detection": frame.Evaluation.TimeSinceNoDetection,
		"state":                frame.State.String(),
		"current":              frame.Current,
		"cents":                frame.Cents,
	}

	if frame.Target != nil {
		meta["target"] = TargetToMap(frame.Target)
	}

	if len(frame.Detection.Harmonics) > 0 {
		harmonics := make([]any, 0, len(frame.Detection.Harmonics))
		for _, h := range frame.Detection.Harmonics {
			harmonics = append(harmonics, map[string]any{
				"number":    h.Number,
				"frequency": h.Frequency,
			})
		}

		meta["harmonics"] = harmonics
	}

	return meta
}

// TargetToMap converts a tuning target.
func TargetToMap(target *types.TuningTarget) map[string]any {
	return map[string]any{
		"note":               target.Note.String(),
		"frequency":          target.Frequency,
		"is_instrument_note": target.IsPartOfInstrument,
	}
}
