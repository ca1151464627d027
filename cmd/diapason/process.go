//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/diapason"
	"github.com/farcloser/diapason/internal/decode"
)

var errProcessArgs = errors.New("expected exactly one argument: file path")

func processCommand() *cli.Command {
	return &cli.Command{
		Name:      "process",
		Usage:     "Decode an audio file and analyze its pitch",
		ArgsUsage: "<file>",
		Flags: slices.Concat([]cli.Flag{
			&cli.IntFlag{
				Name:  "stream",
				Usage: "Audio stream index (0-based)",
				Value: 0,
			},
		}, tuningFlags(), reportFlags()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errProcessArgs, cmd.NArg())
			}

			filePath := cmd.Args().First()

			opts, err := optionsFromFlags(cmd)
			if err != nil {
				return err
			}

			if opts.Checks, err = parseChecks(cmd.String("checks")); err != nil {
				return err
			}

			opts.KeepFrames = cmd.Bool("frames")

			source, err := decode.Open(ctx, filePath, cmd.Int("stream"))
			if err != nil {
				return err
			}
			defer source.Close()

			result, err := diapason.AnalyzeSamples(ctx, source.Samples, source.Format.SampleRate, opts)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			return outputResult(filePath, result, cmd.String("format"), cmd.Bool("debug") || opts.KeepFrames)
		},
	}
}
