//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/diapason"
	"github.com/farcloser/diapason/internal/types"
)

var (
	errInvalidBitDepth = errors.New("must be 16, 24, or 32")
	errInvalidLogLevel = errors.New("must be debug, info, warn, or error")
	errUnknownCheck    = errors.New("unknown check")
)

func logLevelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn, error",
		Value: "warn",
	}
}

func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var level slog.Level

	switch strings.ToLower(cmd.String("log-level")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return ctx, fmt.Errorf("--log-level: %w", errInvalidLogLevel)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	return ctx, nil
}

// pcmFlags describe a raw PCM stream.
func pcmFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:     "sample-rate",
			Aliases:  []string{"s"},
			Usage:    "Sample rate in Hz (e.g., 44100, 48000, 96000)",
			Required: true,
		},
		&cli.IntFlag{
			Name:    "bit-depth",
			Aliases: []string{"b"},
			Usage:   "Bit depth (16, 24, or 32)",
			Value:   16,
		},
		&cli.IntFlag{
			Name:    "channels",
			Aliases: []string{"c"},
			Usage:   "Number of channels, mixed down to mono",
			Value:   1,
		},
	}
}

// tuningFlags map onto diapason.Options.
func tuningFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "instrument",
			Aliases: []string{"i"},
			Usage:   "Instrument preset: chromatic, guitar, bass, ukulele, violin, viola, cello",
			Value:   "chromatic",
		},
		&cli.StringFlag{
			Name:    "target",
			Aliases: []string{"t"},
			Usage:   "Fixed target note (e.g., A4, C#3); follows the detected pitch when empty",
		},
		&cli.StringFlag{
			Name:  "temperament",
			Usage: "Temperament: edo12, edo17, edo19, edo24, edo31, edo41, edo53, pythagorean, pure, quarter-comma-meantone, werckmeister3",
			Value: "edo12",
		},
		&cli.FloatFlag{
			Name:    "reference",
			Aliases: []string{"r"},
			Usage:   "Reference frequency of A4 in Hz",
			Value:   440,
		},
		&cli.IntFlag{
			Name:  "tolerance-index",
			Usage: "Tolerance preset 0-7 (1, 2, 3, 5, 7, 10, 15, 20 cents)",
			Value: 3,
		},
		&cli.IntFlag{
			Name:  "window-size-index",
			Usage: "Window size preset 0-7 (128 to 16384 samples); defaults to the instrument preset",
		},
		&cli.FloatFlag{
			Name:  "overlap",
			Usage: "Fraction of a window shared by consecutive frames (0 to 0.95)",
			Value: 0.25,
		},
		&cli.FloatFlag{
			Name:  "pitch-history",
			Usage: "Pitch history length as a 0-100 position; 50 is three seconds",
			Value: 50,
		},
		&cli.IntFlag{
			Name:  "smoothing",
			Usage: "Number of frames averaged",
			Value: 5,
		},
		&cli.IntFlag{
			Name:  "faulty-values",
			Usage: "Consecutive outliers tolerated before the average restarts",
			Value: 3,
		},
		&cli.StringFlag{
			Name:  "window",
			Usage: "Window function: hann, hamming, blackman, blackman-nuttall, nuttall, rectangular, lanczos",
			Value: "hann",
		},
		&cli.StringFlag{
			Name:  "transform",
			Usage: "FFT backend: gonum, godsp",
			Value: "gonum",
		},
		&cli.FloatFlag{
			Name:  "min-frequency",
			Usage: "Lowest detected frequency in Hz; defaults to the instrument preset",
		},
		&cli.FloatFlag{
			Name:  "max-frequency",
			Usage: "Highest detected frequency in Hz; defaults to the instrument preset",
		},
		&cli.IntFlag{
			Name:  "max-fail",
			Usage: "Consecutive missing harmonics tolerated by the harmonic search",
			Value: 1,
		},
		&cli.FloatFlag{
			Name:  "noise-gate",
			Usage: "Peak level in dBFS below which frames are ignored",
			Value: -70,
		},
	}
}

func reportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "checks",
			Aliases: []string{"C"},
			Usage:   "Comma-separated checks or presets: all, deviation, stability",
			Value:   "all",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: console, json, markdown",
			Value:   "console",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"D"},
			Usage:   "Include all raw analysis data in output",
		},
		&cli.BoolFlag{
			Name:  "frames",
			Usage: "Include per-frame results (implies --debug)",
		},
	}
}

func optionsFromFlags(cmd *cli.Command) (diapason.Options, error) {
	opts, err := diapason.OptionsForInstrument(cmd.String("instrument"))
	if err != nil {
		return opts, err
	}

	if cmd.IsSet("window-size-index") {
		if opts.WindowSize, err = diapason.WindowSizeFromIndex(cmd.Int("window-size-index")); err != nil {
			return opts, err
		}
	}

	if opts.ToleranceCents, err = diapason.ToleranceFromIndex(cmd.Int("tolerance-index")); err != nil {
		return opts, err
	}

	if cmd.IsSet("min-frequency") {
		opts.FrequencyMin = cmd.Float("min-frequency")
	}

	if cmd.IsSet("max-frequency") {
		opts.FrequencyMax = cmd.Float("max-frequency")
	}

	opts.Target = cmd.String("target")
	opts.Temperament = cmd.String("temperament")
	opts.ReferenceFrequency = cmd.Float("reference")
	opts.Overlap = cmd.Float("overlap")
	opts.PitchHistoryDuration = diapason.PitchHistoryDurationFromPercent(cmd.Float("pitch-history"))
	opts.SmoothingWindow = cmd.Int("smoothing")
	opts.NumFaultyValues = cmd.Int("faulty-values")
	opts.Window = cmd.String("window")
	opts.Transform = cmd.String("transform")
	opts.MaxNumFail = cmd.Int("max-fail")
	opts.MinPeakLevelDb = cmd.Float("noise-gate")

	return opts, nil
}

func parsePCMFormat(cmd *cli.Command) (types.PCMFormat, error) {
	bitDepth, err := toBitDepth(cmd.Int("bit-depth"))
	if err != nil {
		return types.PCMFormat{}, fmt.Errorf("--bit-depth: %w", err)
	}

	channels := cmd.Int("channels")
	if channels <= 0 {
		return types.PCMFormat{}, fmt.Errorf("--channels: must be positive, got %d", channels)
	}

	return types.PCMFormat{
		SampleRate: cmd.Int("sample-rate"),
		BitDepth:   bitDepth,
		Channels:   uint(channels), //nolint:gosec // validated positive value
	}, nil
}

func toBitDepth(v int) (types.BitDepth, error) {
	switch v {
	case 16:
		return types.Depth16, nil
	case 24:
		return types.Depth24, nil
	case 32:
		return types.Depth32, nil
	default:
		return 0, errInvalidBitDepth
	}
}

//nolint:gochecknoglobals
var checkNames = map[string]diapason.Check{
	"deviation": diapason.CheckDeviation,
	"stability": diapason.CheckStability,
	// Presets.
	"all": diapason.ChecksAll,
}

func parseChecks(raw string) (diapason.Check, error) {
	var result diapason.Check

	for name := range strings.SplitSeq(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		check, ok := checkNames[name]
		if !ok {
			return 0, fmt.Errorf("%w %q", errUnknownCheck, name)
		}

		result |= check
	}

	if result == 0 {
		return diapason.ChecksAll, nil
	}

	return result, nil
}
