package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/amzx/internal/models"
)

var (
	_ list.Item = trackItem{}
	_ list.Item = failedItem("")
)

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	position int
	track    *models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return fmt.Sprintf("%d. %s", i.position, i.track.Title) }
func (i trackItem) Description() string { return i.track.Artist }

// failedItem is an "artist - title" entry of the failed track list.
type failedItem string

func (i failedItem) FilterValue() string { return string(i) }
func (i failedItem) Title() string       { return string(i) }
func (i failedItem) Description() string { return "no match on Spotify" }

// newList builds a list whose quit keys are left to the model's key map.
func newList(items []list.Item, title string) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.DisableQuitKeybindings()
	return l
}

func trackItems(tracks []*models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{position: i + 1, track: t}
	}
	return items
}

func failedItems(displays []string) []list.Item {
	items := make([]list.Item, len(displays))
	for i, d := range displays {
		items[i] = failedItem(d)
	}
	return items
}
