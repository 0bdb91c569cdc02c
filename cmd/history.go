package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/amzx/internal/formatter"
	"github.com/desertthunder/amzx/internal/models"
	"github.com/desertthunder/amzx/internal/repositories"
	"github.com/desertthunder/amzx/internal/shared"
	"github.com/urfave/cli/v3"
)

// findMigration resolves a job UUID or its sequence number.
func findMigration(repo *repositories.MigrationRepository, id string) (*models.MigrationJob, error) {
	if seq, err := strconv.Atoi(id); err == nil {
		return repo.GetBySequence(seq)
	}
	return repo.Get(id)
}

func (r *Runner) migrations() (*repositories.MigrationRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return repositories.NewMigrationRepository(db), nil
}

// HistoryList lists recorded migrations.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.configure(cmd); err != nil {
		return err
	}
	repo, err := r.migrations()
	if err != nil {
		return err
	}

	status := cmd.String("status")
	switch status {
	case "", models.StatusRunning, models.StatusCompleted, models.StatusFailed:
	default:
		return fmt.Errorf("%w: status %q", shared.ErrInvalidArgument, status)
	}

	jobs, err := repo.List(map[string]any{
		"status":             status,
		"source_playlist_id": cmd.String("source"),
		"limit":              cmd.Int("limit"),
	})
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(jobs, true)
	}
	if len(jobs) == 0 {
		return r.writePlain("No migrations recorded\n")
	}

	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		name := job.SourceName
		if name == "" {
			name = job.SourcePlaylistID
		}
		rows = append(rows, []string{
			strconv.Itoa(job.Sequence),
			job.Status,
			name,
			fmt.Sprintf("%d/%d", job.TracksMigrated, job.TracksTotal),
			job.TargetURL,
			job.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}

	r.writePlainHeader(fmt.Sprintf("Migrations (%d)", len(jobs)))
	return r.writePlain("%s\n", renderTable(
		[]string{"#", "Status", "Source", "Added", "Destination", "Created"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
	))
}

// HistoryShow renders one migration as a report. --id accepts the job UUID or its sequence number.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.configure(cmd); err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	repo, err := r.migrations()
	if err != nil {
		return err
	}

	job, err := findMigration(repo, cmd.String("id"))
	if err != nil {
		return err
	}

	out, err := formatter.Render(formatter.NewReportFromJob(job), format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", out)
}

// HistoryMatches lists cached Amazon Music → Spotify matches.
func (r *Runner) HistoryMatches(ctx context.Context, cmd *cli.Command) error {
	if err := r.configure(cmd); err != nil {
		return err
	}
	db, err := r.database()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	repo := repositories.NewMatchRepository(db)

	matches, err := repo.List(map[string]any{
		"artist": cmd.String("artist"),
		"limit":  cmd.Int("limit"),
	})
	if err != nil {
		return fmt.Errorf("failed to list matches: %w", err)
	}
	total, err := repo.Count()
	if err != nil {
		return fmt.Errorf("failed to count matches: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(matches, true)
	}

	rows := make([][]string, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, []string{
			m.SourceArtist + " - " + m.SourceTitle,
			m.Translation.Artist + " - " + m.Translation.Title,
			m.Translation.URI,
		})
	}

	r.writePlainHeader(fmt.Sprintf("Cached matches (%d of %d)", len(matches), total))
	return r.writePlain("%s\n", renderTable([]string{"Amazon Music", "Spotify", "URI"}, rows, nil))
}

// HistoryDelete hides a migration from history. The row is soft deleted.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.configure(cmd); err != nil {
		return err
	}
	repo, err := r.migrations()
	if err != nil {
		return err
	}

	job, err := findMigration(repo, cmd.String("id"))
	if err != nil {
		return err
	}
	if err := repo.Delete(job.ID); err != nil {
		return err
	}

	r.logger.Debug("deleted migration", "id", job.ID, "sequence", job.Sequence)
	return r.writePlain("✓ Deleted migration #%d (%s)\n", job.Sequence, job.SourceName)
}

// HistoryForget drops the cached match of one source track.
func (r *Runner) HistoryForget(ctx context.Context, cmd *cli.Command) error {
	if err := r.configure(cmd); err != nil {
		return err
	}
	db, err := r.database()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	repo := repositories.NewMatchRepository(db)

	match, err := repo.Lookup(cmd.String("title"), cmd.String("artist"))
	if err != nil {
		return fmt.Errorf("%w: %s - %s", err, cmd.String("artist"), cmd.String("title"))
	}
	if err := repo.Delete(match.ID); err != nil {
		return err
	}

	return r.writePlain("✓ Forgot %s - %s → %s\n", match.SourceArtist, match.SourceTitle, match.Translation.URI)
}
