package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/amzx/internal/services"
	"github.com/desertthunder/amzx/internal/shared"
	"github.com/desertthunder/amzx/internal/tasks"
	"github.com/desertthunder/amzx/internal/ui"
	"github.com/mattn/go-isatty"
)

const tuiLogPath = "./tmp/amzx-tui.log"

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// useFileLogger redirects logs to a file to avoid interfering with TUI rendering.
func (r *Runner) useFileLogger() error {
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)
	return nil
}

// migrateTUI previews the source playlist and follows the migration in the interactive UI.
//
// A started migration is always joined before returning, so its history row is finished
// even when the program exits early. Returns a nil result when the user quits before confirming.
func (r *Runner) migrateTUI(ctx context.Context, source services.Source, engine *tasks.MigrationEngine, sourceID, name string) (*tasks.MigrationResult, error) {
	model := ui.NewModel(ctx, source, engine, sourceID, name)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, runErr := p.Run()
	result, err := model.Wait()
	if runErr != nil && result == nil {
		return nil, fmt.Errorf("error running TUI: %w", runErr)
	}

	if result == nil {
		if err != nil {
			return nil, err
		}
		r.writePlain("Migration cancelled\n")
		return nil, nil
	}

	r.writePlain("%s\n", ui.Summary(result))
	if err != nil {
		return result, fmt.Errorf("migration failed: %w", err)
	}
	return result, nil
}
