package tasks

import (
	"sync"

	"github.com/desertthunder/amzx/internal/models"
)

// Progress tracks how many tracks of a migration have been attempted and which failed to match.
//
// A single goroutine mutates it while observers (CLI, TUI) read snapshots concurrently.
type Progress struct {
	mu        sync.RWMutex
	begun     bool
	total     int
	processed int
	failed    []string
}

// NewProgress creates an idle tracker reporting 0%.
func NewProgress() *Progress {
	return &Progress{}
}

// Begin resets the tracker for a run over total tracks. A run with no tracks is immediately complete.
func (p *Progress) Begin(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.begun = true
	p.total = max(total, 0)
	p.processed = 0
	p.failed = nil
}

// Step records one attempted match. Steps beyond the total are ignored so the percentage never exceeds 100.
func (p *Progress) Step() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.processed < p.total {
		p.processed++
	}
}

// Fail records a track that could not be matched, formatted as "artist - title".
func (p *Progress) Fail(display string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failed = append(p.failed, display)
}

// Percent returns processed/total × 100.
func (p *Progress) Percent() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.percent()
}

func (p *Progress) percent() float64 {
	if !p.begun {
		return 0
	}
	if p.total == 0 {
		return 100
	}
	return float64(p.processed) / float64(p.total) * 100
}

// FailedTracks returns a copy of the failed track list in the order failures occurred.
func (p *Progress) FailedTracks() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return append([]string(nil), p.failed...)
}

// Done reports whether every track has been attempted.
func (p *Progress) Done() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.begun && p.processed == p.total
}

// Snapshot returns a consistent copy of the current state.
func (p *Progress) Snapshot() models.MigrationProgress {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return models.MigrationProgress{
		PercentComplete: p.percent(),
		FailedTracks:    append([]string{}, p.failed...),
		Processed:       p.processed,
		Total:           p.total,
	}
}
