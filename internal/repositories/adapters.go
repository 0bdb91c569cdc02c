package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/amzx/internal/models"
)

// HistoryRecorder implements tasks.Recorder using MigrationRepository.
type HistoryRecorder struct {
	repo *MigrationRepository
}

// NewHistoryRecorder creates a new HistoryRecorder with the given repository
func NewHistoryRecorder(repo *MigrationRepository) *HistoryRecorder {
	return &HistoryRecorder{repo: repo}
}

// StartMigration inserts the running job, assigning its ID and sequence.
func (h *HistoryRecorder) StartMigration(ctx context.Context, job *models.MigrationJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return h.repo.Create(job)
}

// FinishMigration stores the final state of a job. A job that was never started is inserted instead.
func (h *HistoryRecorder) FinishMigration(ctx context.Context, job *models.MigrationJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if job.ID == "" {
		return h.repo.Create(job)
	}
	return h.repo.Update(job)
}

// MatchCacheAdapter implements tasks.TrackCacher using MatchRepository.
//
// Re-caching a source track replaces its destination side, so the cache holds the latest match.
type MatchCacheAdapter struct {
	repo *MatchRepository
}

// NewMatchCacheAdapter creates a new MatchCacheAdapter with the given repository
func NewMatchCacheAdapter(repo *MatchRepository) *MatchCacheAdapter {
	return &MatchCacheAdapter{repo: repo}
}

// CacheMatches upserts every track carrying a translation; unresolved tracks are skipped.
// All tracks are attempted; the errors are joined.
func (a *MatchCacheAdapter) CacheMatches(ctx context.Context, tracks []*models.Track) error {
	var errs []error
	for _, t := range tracks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t.Translation == nil {
			continue
		}

		match := &models.TrackMatch{
			SourceArtist: t.Artist,
			SourceTitle:  t.Title,
			Translation:  *t.Translation,
		}
		if err := a.repo.Upsert(match); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Display(), err))
		}
	}
	return errors.Join(errs...)
}
