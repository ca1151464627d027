package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/diapason"
)

var errDigestArgs = errors.New("expected exactly one argument: path to report.jsonl")

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Produce a summary digest from a diapason JSONL report",
		ArgsUsage: "<report.jsonl>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "issue",
				Usage: "Show files affected by a specific issue type (deviation, stability)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errDigestArgs
			}

			return runDigest(cmd.Args().First(), cmd.String("issue"), os.Stdout)
		},
	}
}

func runDigest(reportPath, issueFilter string, out io.Writer) error {
	records, rawLines, err := readRecordsWithRaw(reportPath)
	if err != nil {
		return err
	}

	printDigest(out, records)

	if issueFilter != "" {
		printIssueDetail(out, records, rawLines, issueFilter)
	}

	return nil
}

func readRecordsWithRaw(path string) ([]digestRecord, [][]byte, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified report files
	if err != nil {
		return nil, nil, fmt.Errorf("opening report: %w", err)
	}
	defer file.Close()

	var (
		records []digestRecord
		lines   [][]byte
	)

	scanner := bufio.NewScanner(file)

	const maxLineSize = 16 * 1024 * 1024 // frames can make lines large
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		lines = append(lines, line)

		var rec digestRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			records = append(records, digestRecord{Error: "parse error"})

			continue
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading report: %w", err)
	}

	return records, lines, nil
}

type noteCount struct {
	note  string
	count int
}

//nolint:gocognit
func printDigest(out io.Writer, records []digestRecord) {
	total := len(records)
	failed := 0
	undetected := 0
	sevDist := map[string]int{"severe": 0, "moderate": 0, "mild": 0, "clean": 0}
	issueDist := map[int]int{}
	checkStats := map[string]*checkBreakdown{}
	noteDist := map[string]int{}
	instrumentDist := map[string]int{}

	var absCents, inTune float64

	for _, rec := range records {
		if rec.Error != "" || rec.Analysis == nil {
			failed++

			continue
		}

		if rec.Instrument != "" {
			instrumentDist[rec.Instrument]++
		}

		if rec.Analysis.Target == nil {
			undetected++

			continue
		}

		noteDist[rec.Analysis.Target.Note]++
		absCents += math.Abs(rec.Analysis.Summary.MeanCents)
		inTune += rec.Analysis.Summary.InTuneRatio

		// Worst severity.
		worst := rec.Analysis.Summary.WorstSeverity
		if worst == "" || worst == diapason.SeverityNone.String() {
			sevDist["clean"]++
		} else {
			sevDist[worst]++
		}

		issueDist[rec.Analysis.Summary.IssueCount]++

		// Per-check breakdown.
		for _, issue := range rec.Analysis.Issues {
			if !issue.Detected {
				continue
			}

			breakdown, ok := checkStats[issue.Check]
			if !ok {
				breakdown = &checkBreakdown{Check: issue.Check}
				checkStats[issue.Check] = breakdown
			}

			breakdown.Total++

			switch issue.Severity {
			case "severe":
				breakdown.Severe++
			case "moderate":
				breakdown.Moderate++
			case "mild":
				breakdown.Mild++
			}
		}
	}

	analyzed := total - failed
	detected := analyzed - undetected

	fmt.Fprintln(out, "=== Diapason Report Digest ===")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total tracks:  %d\n", total)
	fmt.Fprintf(out, "Failed:        %d\n", failed)
	fmt.Fprintf(out, "Analyzed:      %d\n", analyzed)
	fmt.Fprintf(out, "No pitch:      %d\n", undetected)
	fmt.Fprintln(out)

	if len(instrumentDist) > 0 {
		fmt.Fprintln(out, "--- Instruments ---")

		names := make([]string, 0, len(instrumentDist))
		for name := range instrumentDist {
			names = append(names, name)
		}

		slices.Sort(names)

		for _, name := range names {
			fmt.Fprintf(out, "  %-10s %d\n", name+":", instrumentDist[name])
		}

		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "--- Worst Severity ---")
	fmt.Fprintf(out, "  Clean:     %d\n", sevDist["clean"])
	fmt.Fprintf(out, "  Mild:      %d\n", sevDist["mild"])
	fmt.Fprintf(out, "  Moderate:  %d\n", sevDist["moderate"])
	fmt.Fprintf(out, "  Severe:    %d\n", sevDist["severe"])
	fmt.Fprintln(out)

	if detected > 0 {
		fmt.Fprintln(out, "--- Tuning ---")
		fmt.Fprintf(out, "  Mean |deviation|:  %.1f cents\n", absCents/float64(detected))
		fmt.Fprintf(out, "  Mean in tune:      %.0f%%\n", inTune/float64(detected)*100)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "--- Target Notes ---")

		notes := make([]noteCount, 0, len(noteDist))
		for note, count := range noteDist {
			notes = append(notes, noteCount{note: note, count: count})
		}

		slices.SortFunc(notes, func(a, b noteCount) int {
			if a.count != b.count {
				return b.count - a.count
			}

			return strings.Compare(a.note, b.note)
		})

		for _, nc := range notes {
			fmt.Fprintf(out, "  %-6s %d tracks\n", nc.note, nc.count)
		}

		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "--- Issues Per Track ---")

	maxIssues := 0
	for k := range issueDist {
		maxIssues = max(maxIssues, k)
	}

	for i := range maxIssues + 1 {
		if count, ok := issueDist[i]; ok && count > 0 {
			fmt.Fprintf(out, "  %d issues:  %d tracks\n", i, count)
		}
	}

	fmt.Fprintln(out)

	fmt.Fprintln(out, "--- Issues By Type ---")

	breakdowns := make([]*checkBreakdown, 0, len(checkStats))
	for _, bd := range checkStats {
		breakdowns = append(breakdowns, bd)
	}

	slices.SortFunc(breakdowns, func(a, b *checkBreakdown) int {
		if a.Total != b.Total {
			return b.Total - a.Total
		}

		return strings.Compare(a.Check, b.Check)
	})

	for _, bd := range breakdowns {
		fmt.Fprintf(out, "  %s\n", bd.Check)
		fmt.Fprintf(out, "    total: %d  severe: %d  moderate: %d  mild: %d\n", bd.Total, bd.Severe, bd.Moderate, bd.Mild)
	}
}

// Summary fields shown with each affected track, per check.
//
//nolint:gochecknoglobals
var checkDetailKeys = map[string][]string{
	"deviation": {"mean_cents", "median_frequency", "in_tune_ratio"},
	"stability": {"stddev_cents", "valid_frames"},
}

type issueEntry struct {
	file       string
	target     string
	severity   string
	summary    string
	confidence float64
	detail     map[string]any
}

func printIssueDetail(out io.Writer, records []digestRecord, rawLines [][]byte, check string) {
	fmt.Fprintln(out)

	var entries []issueEntry

	keys := checkDetailKeys[check]

	for idx, rec := range records {
		if rec.Error != "" || rec.Analysis == nil {
			continue
		}

		for _, issue := range rec.Analysis.Issues {
			if !issue.Detected || issue.Check != check {
				continue
			}

			entry := issueEntry{
				file:       rec.File,
				severity:   issue.Severity,
				summary:    issue.Summary,
				confidence: issue.Confidence,
			}

			if entry.file == "" {
				entry.file = "(redacted)"
			}

			if rec.Analysis.Target != nil {
				entry.target = rec.Analysis.Target.Note
			}

			if len(keys) > 0 && idx < len(rawLines) {
				entry.detail = extractDetailFromRaw(rawLines[idx], "summary")
			}

			entries = append(entries, entry)
		}
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No tracks affected by %s\n", check)

		return
	}

	slices.SortStableFunc(entries, func(a, b issueEntry) int {
		return severityRank(a.severity) - severityRank(b.severity)
	})

	fmt.Fprintf(out, "=== %s: %d tracks ===\n\n", check, len(entries))

	for _, entry := range entries {
		fmt.Fprintf(out, "  %s\n", entry.file)
		fmt.Fprintf(out, "    severity: %s  confidence: %.0f%%", entry.severity, entry.confidence*100)

		if entry.target != "" {
			fmt.Fprintf(out, "  target: %s", entry.target)
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "    %s\n", entry.summary)

		for _, key := range keys {
			if val, ok := entry.detail[key]; ok {
				fmt.Fprintf(out, "    %s: %s\n", key, formatDetailValue(val))
			}
		}

		fmt.Fprintln(out)
	}
}

func extractDetailFromRaw(rawLine []byte, key string) map[string]any {
	var full struct {
		Analysis map[string]any `json:"analysis"`
	}

	if err := json.Unmarshal(rawLine, &full); err != nil {
		return nil
	}

	if full.Analysis == nil {
		return nil
	}

	if detail, ok := full.Analysis[key].(map[string]any); ok {
		return detail
	}

	return nil
}

func severityRank(severity string) int {
	switch severity {
	case "severe":
		return 0
	case "moderate":
		return 1
	case "mild":
		return 2
	default:
		return 3
	}
}

func formatDetailValue(value any) string {
	switch val := value.(type) {
	case []any:
		return fmt.Sprintf("%d entries", len(val))
	case string:
		return val
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", value)
	}
}
