//nolint:wrapcheck
package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/farcloser/diapason"
	"github.com/farcloser/diapason/internal/decode"
	"github.com/farcloser/diapason/internal/output"
	"github.com/farcloser/diapason/internal/temperament"
)

const defaultOutputFile = "diapason-report.jsonl"

var (
	errReportArgs   = errors.New("expected exactly one argument: folder path")
	errNotDirectory = errors.New("not a directory")
	errNoAudioFiles = errors.New("no audio files found")
)

//nolint:gochecknoglobals // configuration data, effectively const
var audioExtensions = []string{".wav", ".flac", ".m4a", ".mp3", ".ogg", ".opus", ".aiff"}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Scan a folder of recordings and write a JSONL tuning report",
		ArgsUsage: "<folder>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "redact-path",
				Usage: "Strip file paths from the report",
			},
			&cli.StringFlag{
				Name:    "instrument",
				Aliases: []string{"i"},
				Usage:   "Override the instrument for all files (default: auto-detect from path, else chromatic)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report file; a gzip copy is written next to it",
				Value:   defaultOutputFile,
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent workers",
				Value:   runtime.NumCPU(),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errReportArgs
			}

			return runReport(ctx, reportConfig{
				folder:     cmd.Args().First(),
				output:     cmd.String("output"),
				redact:     cmd.Bool("redact-path"),
				instrument: cmd.String("instrument"),
				workers:    max(cmd.Int("workers"), 1),
			}, os.Stdout, os.Stderr)
		},
	}
}

type reportConfig struct {
	folder     string
	output     string
	redact     bool
	instrument string
	workers    int
}

func runReport(ctx context.Context, cfg reportConfig, stdout, stderr io.Writer) error {
	info, err := os.Stat(cfg.folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%q: %w", cfg.folder, errNotDirectory)
	}

	if cfg.instrument != "" {
		if _, err = temperament.ParseInstrument(cfg.instrument); err != nil {
			return err
		}
	}

	files, err := collectAudioFiles(cfg.folder)
	if err != nil {
		return fmt.Errorf("scanning folder: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("%q: %w", cfg.folder, errNoAudioFiles)
	}

	fmt.Fprintf(stderr, "Found %d files to analyze (%d workers)\n", len(files), cfg.workers)

	startTime := time.Now()
	results := make([]Record, len(files))

	var (
		progress atomic.Int64
		group    errgroup.Group
	)

	group.SetLimit(cfg.workers)

	for idx, filePath := range files {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[idx] = processFile(ctx, filePath, cfg.instrument)

			done := progress.Add(1)
			fmt.Fprintf(stderr, "[%d/%d] %s\n", done, len(files), filePath)

			return nil
		})
	}

	// Only cancellation fails a worker; a partial report is not written.
	if err := group.Wait(); err != nil {
		return err
	}

	// Write results in file order.
	out, err := os.Create(cfg.output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	enc := json.NewEncoder(out)
	failed := 0

	var totalProbe, totalDecode, totalAnalyze time.Duration

	for idx := range results {
		record := &results[idx]

		if record.Error != "" {
			failed++
		}

		if record.Timing != nil {
			totalProbe += millisToDuration(record.Timing.ProbeMs)
			totalDecode += millisToDuration(record.Timing.DecodeMs)
			totalAnalyze += millisToDuration(record.Timing.AnalyzeMs)
		}

		if cfg.redact {
			record.File = ""
			record.Probe = redactProbe(record.Probe)
		}

		if err := enc.Encode(record); err != nil {
			slog.Error("writing record", "file", files[idx], "error", err)
		}
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}

	if err := compressFile(cfg.output); err != nil {
		slog.Error("compressing report", "error", err)
	}

	elapsed := time.Since(startTime)

	fmt.Fprintf(stderr, "\nDone: %d files in %s (%d failed)\n", len(files), elapsed.Truncate(time.Second), failed)
	fmt.Fprintf(stderr, "Report written to %s (and %s.gz)\n", cfg.output, cfg.output)

	analyzed := len(files) - failed
	fmt.Fprintf(stderr, "\n--- Timing ---\n")
	fmt.Fprintf(stderr, "  Wall clock:  %s\n", elapsed.Truncate(time.Millisecond))
	fmt.Fprintf(stderr, "  ffprobe:     %s (cumulative)\n", totalProbe.Truncate(time.Millisecond))
	fmt.Fprintf(stderr, "  decode:      %s (cumulative)\n", totalDecode.Truncate(time.Millisecond))
	fmt.Fprintf(stderr, "  analysis:    %s (cumulative)\n", totalAnalyze.Truncate(time.Millisecond))

	if analyzed > 0 {
		fmt.Fprintf(stderr, "  avg/file:    %s (probe: %s, decode: %s, analyze: %s)\n",
			(totalProbe+totalDecode+totalAnalyze)/time.Duration(analyzed),
			totalProbe/time.Duration(analyzed),
			totalDecode/time.Duration(analyzed),
			totalAnalyze/time.Duration(analyzed),
		)
	}

	fmt.Fprintln(stderr)

	return runDigest(cfg.output, "", stdout)
}

func processFile(ctx context.Context, filePath, instrumentOverride string) Record {
	fileStart := time.Now()
	timing := &RecordTiming{}
	instrument := detectInstrument(filePath, instrumentOverride)

	opts, err := diapason.OptionsForInstrument(instrument)
	if err != nil {
		return Record{File: filePath, Error: fmt.Sprintf("invalid instrument: %v", err)}
	}

	decodeStart := time.Now()

	source, err := decode.Open(ctx, filePath, 0)
	if err != nil {
		timing.DecodeMs = durationMs(time.Since(decodeStart))

		return Record{File: filePath, Instrument: instrument, Error: fmt.Sprintf("decode failed: %v", err), Timing: timing}
	}
	defer source.Close()

	timing.ProbeMs = durationMs(source.ProbeDuration)
	timing.DecodeMs = durationMs(source.DecodeDuration)

	analyzeStart := time.Now()

	result, err := diapason.AnalyzeSamples(ctx, source.Samples, source.Format.SampleRate, opts)

	timing.AnalyzeMs = durationMs(time.Since(analyzeStart))
	timing.TotalMs = durationMs(time.Since(fileStart))

	if err != nil {
		return Record{File: filePath, Instrument: instrument, Error: fmt.Sprintf("analysis failed: %v", err), Timing: timing}
	}

	record := Record{
		File:       filePath,
		Instrument: instrument,
		Decoder:    source.Decoder,
		Analysis:   output.ResultToMap(result),
		Timing:     timing,
	}

	if source.Probe != nil {
		probeJSON, err := json.Marshal(source.Probe)
		if err == nil {
			record.Probe = probeJSON
		} else {
			record.ProbeError = "probe serialization failed"
		}
	}

	return record
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func millisToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// detectInstrument picks the first instrument name found among the directories of filePath.
func detectInstrument(filePath, override string) string {
	if override != "" {
		return override
	}

	known := temperament.Instruments()

	for part := range strings.SplitSeq(filepath.ToSlash(filepath.Dir(filePath)), "/") {
		if lower := strings.ToLower(part); slices.Contains(known, lower) {
			return lower
		}
	}

	return "chromatic"
}

func collectAudioFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if slices.Contains(audioExtensions, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)

	return files, nil
}

func compressFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // reading our own output file
	if err != nil {
		return err
	}

	gzFile, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer gzFile.Close()

	gzWriter := gzip.NewWriter(gzFile)

	if _, err := gzWriter.Write(data); err != nil {
		return err
	}

	return gzWriter.Close()
}

func redactProbe(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}

	var probe map[string]any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return raw
	}

	// Strip format.filename.
	if format, ok := probe["format"].(map[string]any); ok {
		delete(format, "filename")
	}

	redacted, err := json.Marshal(probe)
	if err != nil {
		return raw
	}

	return redacted
}
