//nolint:wrapcheck
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/diapason"
	"github.com/farcloser/diapason/internal/output"
	"github.com/farcloser/diapason/internal/pcm"
	"github.com/farcloser/diapason/internal/types"
)

var errInvalidListenFormat = errors.New("must be text or json")

func listenCommand() *cli.Command {
	return &cli.Command{
		Name:      "listen",
		Usage:     "Follow the pitch of a raw PCM stream, one line per frame, until end of input or interrupt",
		ArgsUsage: "[file | -]",
		Flags: slices.Concat(pcmFlags(), tuningFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Line format: text, json",
				Value:   "text",
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() > 1 {
				return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
			}

			lineFormat := cmd.String("format")
			if lineFormat != "text" && lineFormat != "json" {
				return fmt.Errorf("--format: %w", errInvalidListenFormat)
			}

			format, err := parsePCMFormat(cmd)
			if err != nil {
				return err
			}

			opts, err := optionsFromFlags(cmd)
			if err != nil {
				return err
			}

			var input io.Reader = os.Stdin

			if source := cmd.Args().First(); source != "" && source != "-" {
				file, openErr := os.Open(source) //nolint:gosec // CLI tool opens user-specified audio files
				if openErr != nil {
					return fmt.Errorf("opening file: %w", openErr)
				}
				defer file.Close()

				input = file
			}

			src, err := pcm.NewReader(input, format)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			results := make(chan diapason.FrameResult, 1)
			errs := make(chan error, 1)

			go func() {
				errs <- diapason.Listen(ctx, src, format.SampleRate, opts, results)
			}()

			writeErr := writeFrames(os.Stdout, lineFormat, results, cancel)

			if err = <-errs; err != nil {
				return err
			}

			return writeErr
		},
	}
}

// writeFrames prints one line per result until results is closed. After the first write error,
// the run is cancelled and the remaining results are drained.
func writeFrames(w io.Writer, lineFormat string, results <-chan diapason.FrameResult, cancel context.CancelFunc) error {
	out := bufio.NewWriter(w)
	encoder := json.NewEncoder(out)

	var writeErr error

	for res := range results {
		if writeErr != nil {
			continue
		}

		if lineFormat == "json" {
			writeErr = encoder.Encode(output.FrameToMap(res))
		} else {
			_, writeErr = fmt.Fprintln(out, frameLine(res))
		}

		if writeErr == nil {
			writeErr = out.Flush()
		}

		if writeErr != nil {
			cancel()
		}
	}

	return writeErr
}

func frameLine(res types.FrameResult) string {
	if res.State == types.TuningUnknown || res.Target == nil {
		if res.Current > 0 {
			return fmt.Sprintf("%8.3fs  %-5s %9.2f Hz  %13s  %s", res.Detection.Time, "-", res.Current, "",
				res.State)
		}

		return fmt.Sprintf("%8.3fs  %-5s %12s  %13s  %s", res.Detection.Time, "-", "-", "", res.State)
	}

	return fmt.Sprintf("%8.3fs  %-5s %9.2f Hz  %+7.1f cents  %s",
		res.Detection.Time, res.Target.Note, res.Current, res.Cents, res.State)
}
