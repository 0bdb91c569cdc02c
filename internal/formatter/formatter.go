// package formatter renders migration reports and source playlists to various formats (CSV, JSON, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/amzx/internal/models"
	"github.com/desertthunder/amzx/internal/shared"
	"github.com/desertthunder/amzx/internal/tasks"
)

// Format is an output format for reports.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// ParseFormat resolves a format name; "md" and "text" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: format %q (want txt, markdown, csv or json)", shared.ErrInvalidArgument, s)
	}
}

// Report summarises one migration run.
type Report struct {
	JobID        string          `json:"job_id,omitempty"`
	SourceID     string          `json:"source_id"`
	SourceName   string          `json:"source_name"`
	PlaylistID   string          `json:"playlist_id,omitempty"`
	PlaylistURL  string          `json:"playlist_url,omitempty"`
	Total        int             `json:"total"`
	Matched      int             `json:"matched"`
	Added        int             `json:"added"`
	Failed       int             `json:"failed"`
	MatchRate    float64         `json:"match_rate"`
	FailedTracks []string        `json:"failed_tracks"`
	Tracks       []*models.Track `json:"tracks"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  time.Time       `json:"completed_at"`
}

// NewReport builds a report from a (possibly partial) migration result.
func NewReport(sourceID string, result *tasks.MigrationResult) *Report {
	r := &Report{
		JobID:        result.JobID,
		SourceID:     sourceID,
		Total:        len(result.Tracks),
		Matched:      result.Matched(),
		Added:        result.TracksAdded,
		MatchRate:    result.MatchPercentage(),
		FailedTracks: result.Progress.FailedTracks,
		Tracks:       result.Tracks,
		StartedAt:    result.StartedAt,
		CompletedAt:  result.CompletedAt,
	}
	r.Failed = len(r.FailedTracks)
	if result.Source != nil {
		r.SourceName = result.Source.Name
	}
	if result.Playlist != nil {
		r.PlaylistID = result.Playlist.ID
		r.PlaylistURL = result.Playlist.ExternalURL
	}
	return r
}

// NewReportFromJob builds a report from a recorded migration; per-track matches are not part of history.
// History only keeps the tracks that were added, so they stand in for the matched count.
func NewReportFromJob(job *models.MigrationJob) *Report {
	r := &Report{
		JobID:        job.ID,
		SourceID:     job.SourcePlaylistID,
		SourceName:   job.SourceName,
		PlaylistID:   job.TargetPlaylistID,
		PlaylistURL:  job.TargetURL,
		Total:        job.TracksTotal,
		Matched:      job.TracksMigrated,
		Added:        job.TracksMigrated,
		Failed:       job.TracksFailed,
		FailedTracks: job.FailedTracks,
	}
	if job.TracksTotal > 0 {
		r.MatchRate = float64(job.TracksMigrated) / float64(job.TracksTotal) * 100
	}
	if job.StartedAt != nil {
		r.StartedAt = *job.StartedAt
	}
	if job.CompletedAt != nil {
		r.CompletedAt = *job.CompletedAt
	}
	return r
}

// Duration is the wall time of the run, zero while incomplete.
func (r *Report) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond)
}

// Render converts the report to the given format.
func Render(r *Report, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return ReportToText(r)
	case FormatMarkdown:
		return ReportToMarkdown(r)
	case FormatCSV:
		return ReportToCSV(r)
	case FormatJSON:
		return ReportToJSON(r)
	default:
		return nil, fmt.Errorf("%w: format %q", shared.ErrInvalidArgument, f)
	}
}

// WriteReport renders the report and writes it to path.
func WriteReport(r *Report, path string, f Format) error {
	data, err := Render(r, f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ReportToText converts a report to plain text format
func ReportToText(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Source: %s (%s)\n", r.SourceName, r.SourceID)
	if r.PlaylistURL != "" {
		fmt.Fprintf(&buf, "Destination: %s\n", r.PlaylistURL)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n", r.Total)
	fmt.Fprintf(&buf, "Matched: %d (%.1f%%)\n", r.Matched, r.MatchRate)
	fmt.Fprintf(&buf, "Added: %d\n", r.Added)
	fmt.Fprintf(&buf, "Failed: %d\n", r.Failed)
	if d := r.Duration(); d > 0 {
		fmt.Fprintf(&buf, "Duration: %s\n", d)
	}

	if len(r.FailedTracks) > 0 {
		buf.WriteString("\nFailed tracks:\n")
		for i, display := range r.FailedTracks {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, display)
		}
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown converts a report to Markdown with a summary, failed list and match table
func ReportToMarkdown(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	name := r.SourceName
	if name == "" {
		name = r.SourceID
	}
	fmt.Fprintf(&buf, "# %s\n\n", name)

	if r.PlaylistURL != "" {
		fmt.Fprintf(&buf, "**Destination**: [%s](%s)\n\n", r.PlaylistID, r.PlaylistURL)
	}
	fmt.Fprintf(&buf, "**Tracks**: %d\n", r.Total)
	fmt.Fprintf(&buf, "**Matched**: %d (%.1f%%)\n", r.Matched, r.MatchRate)
	fmt.Fprintf(&buf, "**Added**: %d\n", r.Added)
	fmt.Fprintf(&buf, "**Failed**: %d\n\n", r.Failed)

	if len(r.FailedTracks) > 0 {
		buf.WriteString("## Failed Tracks\n\n")
		for i, display := range r.FailedTracks {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, display)
		}
		buf.WriteString("\n")
	}

	if len(r.Tracks) > 0 {
		buf.WriteString("## Tracks\n\n")
		buf.WriteString("| # | Source | Spotify |\n")
		buf.WriteString("|---|--------|---------|\n")
		for i, t := range r.Tracks {
			dest := "_not found_"
			if t.Translation != nil {
				dest = fmt.Sprintf("%s - %s", t.Translation.Artist, t.Translation.Title)
			}
			fmt.Fprintf(&buf, "| %d | %s | %s |\n", i+1, escapeCell(t.Display()), escapeCell(dest))
		}
	}

	return buf.Bytes(), nil
}

// ReportToCSV converts a report to CSV with one row per source track:
// Position, Status, Artist, Title, Spotify ID, Spotify URI, Spotify Artist, Spotify Title.
//
// History reports carry no per-track rows, so their failed tracks are listed instead.
func ReportToCSV(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Status", "Artist", "Title", "Spotify ID", "Spotify URI", "Spotify Artist", "Spotify Title"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	records := make([][]string, 0, len(r.Tracks))
	for i, t := range r.Tracks {
		record := []string{strconv.Itoa(i + 1), "failed", t.Artist, t.Title, "", "", "", ""}
		if t.Translation != nil {
			record[1] = "matched"
			record[4] = t.Translation.ID
			record[5] = t.Translation.URI
			record[6] = t.Translation.Artist
			record[7] = t.Translation.Title
		}
		records = append(records, record)
	}
	if len(r.Tracks) == 0 {
		for i, display := range r.FailedTracks {
			artist, title, _ := strings.Cut(display, " - ")
			records = append(records, []string{strconv.Itoa(i + 1), "failed", artist, title, "", "", "", ""})
		}
	}

	if err := writer.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write CSV record: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportToJSON converts a report to indented JSON
func ReportToJSON(r *Report) ([]byte, error) {
	return shared.MarshalJSON(r, true)
}

// PlaylistToText converts a source playlist to a numbered "artist - title" listing
func PlaylistToText(p *models.SourcePlaylist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", p.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(p.Edges))

	for i, t := range p.Tracks() {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, t.Display())
	}

	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
