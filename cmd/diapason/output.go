//nolint:wrapcheck
package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/farcloser/primordium/format"

	"github.com/farcloser/diapason"
	"github.com/farcloser/diapason/internal/output"
)

func outputResult(filePath string, result *diapason.Result, formatName string, debug bool) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	var meta map[string]any
	if debug {
		meta = output.ResultToMap(result)
	} else {
		meta = buildFriendlyOutput(result)
	}

	data := &format.Data{
		Object: filePath,
		Meta:   meta,
	}

	return formatter.PrintAll([]*format.Data{data}, os.Stdout)
}

// buildFriendlyOutput creates a user-friendly summary of the analysis results.
func buildFriendlyOutput(result *diapason.Result) map[string]any {
	summary := result.Summary

	if summary.Target == nil {
		return map[string]any{
			"summary": fmt.Sprintf("no pitch detected in %d frames", summary.Frames),
		}
	}

	meta := map[string]any{
		"summary": fmt.Sprintf("%s, %d issues found (worst: %s)",
			summary.Target.Note, result.IssueCount, result.WorstSeverity),
	}

	issues := make([]any, 0, len(result.Issues))

	for _, issue := range result.Issues {
		marker := "  "
		if issue.Detected {
			marker = "!!"
		}

		issues = append(issues, fmt.Sprintf("%s [%s] %s: %s (%.0f%% confidence)",
			marker, issue.Severity, issue.Check, issue.Summary, issue.Confidence*100))
	}

	if len(issues) > 0 {
		meta["issues"] = issues
	}

	properties := map[string]any{
		"target":        fmt.Sprintf("%s (%.2f Hz)", summary.Target.Note, summary.Target.Frequency),
		"pitch":         fmt.Sprintf("%.2f Hz (median)", summary.MedianFrequency),
		"deviation":     fmt.Sprintf("%+.1f cents (spread %.1f)", summary.MeanCents, summary.StdDevCents),
		"in_tune":       fmt.Sprintf("%.0f%% of classified frames", summary.InTuneRatio*100),
		"frames":        fmt.Sprintf("%d with pitch of %d (%.1fs)", summary.ValidFrames, summary.Frames, summary.Duration),
		"configuration": configLine(result.Resolved),
	}

	if history := result.PitchHistory; len(history) > 0 {
		properties["recent"] = fmt.Sprintf("%.2f Hz to %.2f Hz over the last %d frames",
			slices.Min(history), slices.Max(history), len(history))
	}

	meta["properties"] = properties

	return meta
}

func configLine(r *diapason.Resolved) string {
	if r == nil {
		return ""
	}

	return fmt.Sprintf("%s, %s, window %d, hop %d, tolerance %.0f cents",
		r.Instrument, r.Temperament, r.WindowSize, r.Hop, r.ToleranceCents)
}
