package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/xfer/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "xfer",
		Usage:    "Transfer playlists between Spotify, YouTube Music, Apple Music & Amazon Music",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   runner.Configure,
		After:    runner.Close,
		Commands: runner.register(),
	}

	// Interrupting a match keeps the results gathered so far.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
