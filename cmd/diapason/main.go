package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/diapason/version"
)

func main() {
	ctx := context.Background()

	appl := &cli.Command{
		Name:    version.Name(),
		Usage:   "Pitch detection and tuning analysis",
		Version: version.Version() + " " + version.Commit(),
		Flags: []cli.Flag{
			logLevelFlag(),
		},
		Before: setupLogging,
		Commands: []*cli.Command{
			analyzeCommand(),
			processCommand(),
			listenCommand(),
		},
	}

	if err := appl.Run(ctx, os.Args); err != nil {
		slog.Error("failed to run", "error", err)
		os.Exit(1)
	}
}
