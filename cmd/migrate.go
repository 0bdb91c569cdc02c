package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/desertthunder/amzx/internal/formatter"
	"github.com/desertthunder/amzx/internal/pacing"
	"github.com/desertthunder/amzx/internal/shared"
	"github.com/desertthunder/amzx/internal/tasks"
	"github.com/desertthunder/amzx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Migrate runs a full Amazon Music → Spotify migration.
//
// A report is written whenever a result exists, including for runs that aborted part way.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	if err := r.configure(cmd); err != nil {
		return err
	}

	sourceID := cmd.String("source")
	name := cmd.String("name")
	reportPath := cmd.String("report")

	strategy, err := pacing.ParseStrategy(cmp.Or(cmd.String("strategy"), r.config.Migration.Strategy))
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if cmd.Bool("tui") {
		if !isTerminal(os.Stdout) {
			return fmt.Errorf("%w: --tui needs an interactive terminal", shared.ErrInvalidArgument)
		}
		if err := r.useFileLogger(); err != nil {
			return err
		}
	}

	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	engine, source, err := r.engine(ctx, strategy)
	if err != nil {
		return err
	}

	r.logger.Info("starting migration", "source", sourceID, "strategy", strategy)

	var result *tasks.MigrationResult
	if cmd.Bool("tui") {
		result, err = r.migrateTUI(ctx, source, engine, sourceID, name)
	} else {
		result, err = r.migratePlain(ctx, engine, sourceID, name)
	}

	if result != nil && reportPath != "" {
		report := formatter.NewReport(sourceID, result)
		if werr := formatter.WriteReport(report, reportPath, format); werr != nil {
			r.logger.Error("failed to write report", "path", reportPath, "error", werr)
		} else {
			r.writePlain("Report written to %s\n", reportPath)
		}
	}
	return err
}

func (r *Runner) migratePlain(ctx context.Context, engine *tasks.MigrationEngine, sourceID, name string) (*tasks.MigrationResult, error) {
	r.writePlain("Starting playlist migration...\n")
	r.writePlain("Source: %s\n\n", sourceID)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchSource:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.CreatePlaylist:
				r.writePlain("\n📝 %s\n", update.Message)
			case tasks.SearchTracks:
				if update.Step == 1 {
					r.writePlain("\n🔍 Searching Spotify for %d tracks\n", update.Total)
				}
				r.writePlain("   %s\n", update.Message)
			case tasks.AddTracks:
				r.writePlain("➕ %s\n", update.Message)
			case tasks.Complete:
				r.writePlain("\n%s\n", update.Message)
			}
		}
	}()

	result, err := engine.Run(ctx, sourceID, tasks.RunOpts{Name: name}, progressCh)
	close(progressCh)
	wg.Wait()

	if result != nil {
		title := "Migration Complete!"
		if err != nil {
			title = "Migration Aborted"
		}
		r.writePlain("\n")
		r.writePlainHeader(title)
		r.writePlain("%s\n", ui.Summary(result))

		if failed := result.Progress.FailedTracks; len(failed) > 0 {
			r.writePlain("\nNot found on Spotify (%d):\n", len(failed))
			for _, display := range failed {
				r.writePlain("  - %s\n", display)
			}
		}
	}

	if err != nil {
		return result, fmt.Errorf("migration failed: %w", err)
	}
	return result, nil
}
