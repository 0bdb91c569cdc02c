package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/amzx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := newApp(runner)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.Run(ctx, os.Args)
	stop()

	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close database", "error", cerr)
	}
	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "amzx",
		Usage:    "Migrate Amazon Music playlists to Spotify",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Commands: r.register(),
	}
}
