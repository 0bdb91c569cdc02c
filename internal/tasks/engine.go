// package tasks implements the Amazon Music → Spotify playlist migration.
//
// The core abstraction is MigrationEngine, which fetches, matches, and writes a playlist.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/amzx/internal/models"
	"github.com/desertthunder/amzx/internal/services"
	"github.com/desertthunder/amzx/internal/shared"
)

// Recorder persists a migration job as it starts and finishes.
type Recorder interface {
	StartMigration(ctx context.Context, job *models.MigrationJob) error
	FinishMigration(ctx context.Context, job *models.MigrationJob) error
}

// TrackCacher stores resolved tracks once their batch has been written.
type TrackCacher interface {
	CacheMatches(ctx context.Context, tracks []*models.Track) error
}

// Destination is everything the engine needs from the destination catalog.
type Destination interface {
	Searcher
	PlaylistAPI
}

// EngineOpts configures a [MigrationEngine].
type EngineOpts struct {
	BatchSize   int
	BatchPacer  services.Waiter // Spaces batch writes
	Description string
	Public      bool
	Logger      *log.Logger
}

// MigrationEngine orchestrates fetch → create → match → write for one playlist at a time.
type MigrationEngine struct {
	source    services.Source
	dest      Destination
	batchSize int
	writer    WriterOpts
	recorder  Recorder
	cacher    TrackCacher
	logger    *log.Logger
}

// NewMigrationEngine creates an engine over the given catalogs.
func NewMigrationEngine(source services.Source, dest Destination, opts EngineOpts) *MigrationEngine {
	if opts.BatchSize <= 0 || opts.BatchSize > DefaultBatchSize {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &MigrationEngine{
		source:    source,
		dest:      dest,
		batchSize: opts.BatchSize,
		writer: WriterOpts{
			Description: opts.Description,
			Public:      opts.Public,
			Pacer:       opts.BatchPacer,
			Logger:      opts.Logger,
		},
		logger: opts.Logger,
	}
}

// SetRecorder enables migration history. Recorder failures are logged and never abort a run.
func (e *MigrationEngine) SetRecorder(r Recorder) { e.recorder = r }

// SetTrackCacher enables the match cache. Cache failures are logged and never abort a run.
func (e *MigrationEngine) SetTrackCacher(c TrackCacher) { e.cacher = c }

// RunOpts are per-run options.
type RunOpts struct {
	// Name of the destination playlist; defaults to the source playlist's name.
	Name string
	// Progress receives per-track updates; a fresh tracker is used when nil.
	Progress *Progress
	// Source skips the fetch when the playlist has already been retrieved (e.g. for a preview).
	Source *models.SourcePlaylist
}

// MigrationResult contains all data from a migration run, including partial data when it aborts.
type MigrationResult struct {
	JobID           string
	Source          *models.SourcePlaylist
	Playlist        *models.PlaylistHandle
	Tracks          []*models.Track
	Progress        models.MigrationProgress
	Batches         int
	BatchesWritten  int
	BatchesRejected int
	TracksAdded     int // Tracks in batches the destination accepted
	StartedAt       time.Time
	CompletedAt     time.Time
}

// Matched counts tracks with a destination translation.
func (r *MigrationResult) Matched() int {
	n := 0
	for _, t := range r.Tracks {
		if t.Translation != nil {
			n++
		}
	}
	return n
}

// MatchPercentage is the share of source tracks that were matched.
func (r *MigrationResult) MatchPercentage() float64 {
	if len(r.Tracks) == 0 {
		return 0
	}
	return float64(r.Matched()) / float64(len(r.Tracks)) * 100
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *MigrationEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run migrates the source playlist sourceID into a newly created destination playlist.
//
// Tracks are matched and written batch by batch. A search failure, transport failure or cancellation
// aborts the run; the translations of the batch in flight are cleared so that only written tracks
// carry one. Tracks without a match are recorded in the progress tracker. Nothing is checkpointed.
func (e *MigrationEngine) Run(ctx context.Context, sourceID string, opts RunOpts, progress chan<- ProgressUpdate) (*MigrationResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: source service not initialized", shared.ErrServiceUnavailable)
	}
	if e.dest == nil {
		return nil, fmt.Errorf("%w: destination service not initialized", shared.ErrServiceUnavailable)
	}
	if sourceID == "" {
		return nil, fmt.Errorf("%w: source playlist ID", shared.ErrMissingArgument)
	}

	prog := opts.Progress
	if prog == nil {
		prog = NewProgress()
	}

	job := models.NewMigrationJob(sourceID, "")
	result := &MigrationResult{StartedAt: *job.StartedAt}
	e.record(ctx, job, true)

	err := e.run(ctx, sourceID, opts, prog, job, result, progress)

	result.Progress = prog.Snapshot()
	result.CompletedAt = time.Now()
	result.JobID = job.ID

	job.TracksTotal = len(result.Tracks)
	job.TracksMigrated = result.TracksAdded
	job.FailedTracks = result.Progress.FailedTracks
	job.TracksFailed = len(job.FailedTracks)
	if err != nil {
		job.Complete(models.StatusFailed, err)
		e.logger.Error("migration failed", "source", sourceID, "error", err)
	} else {
		job.Complete(models.StatusCompleted, nil)
		e.sendProgress(progress, completeUpdate(result.Progress))
	}
	e.record(context.WithoutCancel(ctx), job, false)

	return result, err
}

func (e *MigrationEngine) run(
	ctx context.Context,
	sourceID string,
	opts RunOpts,
	prog *Progress,
	job *models.MigrationJob,
	result *MigrationResult,
	progress chan<- ProgressUpdate,
) error {
	src := opts.Source
	if src == nil {
		e.sendProgress(progress, fetchingSourceUpdate(sourceID))

		var err error
		if src, err = e.source.FetchPlaylist(ctx, sourceID); err != nil {
			return fmt.Errorf("failed to fetch source playlist: %w", err)
		}
	}
	result.Source = src
	result.Tracks = src.Tracks()
	job.SourceName = src.Name
	prog.Begin(len(result.Tracks))
	e.sendProgress(progress, foundPlaylistUpdate(src))

	name := opts.Name
	if name == "" {
		name = src.Name
	}
	if name == "" {
		name = sourceID
	}

	writer := NewWriter(e.dest, e.writer)

	e.sendProgress(progress, createDestinationUpdate(name))
	handle, err := writer.CreatePlaylist(ctx, name)
	if err != nil {
		return err
	}
	if handle.ID == "" {
		return fmt.Errorf("%w: %q", shared.ErrPlaylistNotCreated, name)
	}
	result.Playlist = handle
	job.TargetPlaylistID = handle.ID
	job.TargetURL = handle.ExternalURL
	e.sendProgress(progress, createdPlaylistUpdate(handle))

	matcher := NewMatcher(e.dest, prog, e.logger)
	batches := Chunk(result.Tracks, e.batchSize)
	result.Batches = len(batches)
	total := len(result.Tracks)
	done := 0

	for i, batch := range batches {
		for _, track := range batch {
			match, err := matcher.Match(ctx, track)
			if err != nil {
				clearTranslations(batch)
				return err
			}
			done++
			e.sendProgress(progress, searchTrackUpdate(done, total, track, match.Found))
		}

		uris := URIs(batch)
		ok, err := writer.AddTracks(ctx, handle.ID, uris)
		if err != nil {
			clearTranslations(batch)
			return err
		}
		e.sendProgress(progress, addTracksUpdate(i+1, len(batches), len(uris), ok))

		switch {
		case ok:
			result.BatchesWritten++
			result.TracksAdded += len(uris)
			e.cache(ctx, batch)
		case len(uris) > 0:
			result.BatchesRejected++
		}
	}

	return nil
}

func (e *MigrationEngine) record(ctx context.Context, job *models.MigrationJob, start bool) {
	if e.recorder == nil {
		return
	}

	var err error
	if start {
		err = e.recorder.StartMigration(ctx, job)
	} else {
		err = e.recorder.FinishMigration(ctx, job)
	}
	if err != nil {
		e.logger.Warn("failed to record migration", "source", job.SourcePlaylistID, "error", err)
	}
}

func (e *MigrationEngine) cache(ctx context.Context, batch models.TrackBatch) {
	if e.cacher == nil {
		return
	}

	resolved := make([]*models.Track, 0, len(batch))
	for _, t := range batch {
		if t.Translation != nil {
			resolved = append(resolved, t)
		}
	}
	if err := e.cacher.CacheMatches(ctx, resolved); err != nil {
		e.logger.Debug("failed to cache matches", "error", err)
	}
}
