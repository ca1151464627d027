//nolint:wrapcheck
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/diapason"
)

var errInvalidArgCount = errors.New("expected exactly one argument: file path or \"-\" for stdin")

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze the pitch of raw PCM audio",
		ArgsUsage: "<file | ->",
		Flags:     slices.Concat(pcmFlags(), tuningFlags(), reportFlags()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
			}

			format, err := parsePCMFormat(cmd)
			if err != nil {
				return err
			}

			opts, err := optionsFromFlags(cmd)
			if err != nil {
				return err
			}

			if opts.Checks, err = parseChecks(cmd.String("checks")); err != nil {
				return err
			}

			opts.KeepFrames = cmd.Bool("frames")

			inputPath := cmd.Args().First()

			factory, err := readerFactory(inputPath)
			if err != nil {
				return err
			}

			result, err := diapason.Analyze(ctx, factory, format, opts)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			return outputResult(inputPath, result, cmd.String("format"), cmd.Bool("debug") || opts.KeepFrames)
		},
	}
}

// readerFactory returns a factory producing readers over the input.
// For files, it opens the file each time. For stdin, it buffers the entire input.
func readerFactory(source string) (diapason.ReaderFactory, error) {
	if source == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}

		factory := func() (io.Reader, error) {
			return bytes.NewReader(data), nil
		}

		return factory, nil
	}

	// Verify the file exists upfront.
	if _, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", source, err)
	}

	factory := func() (io.Reader, error) {
		return os.Open(source) //nolint:gosec // CLI tool opens user-specified audio files
	}

	return factory, nil
}
