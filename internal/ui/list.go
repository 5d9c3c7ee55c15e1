package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/xfer/internal/formatter"
	"github.com/desertthunder/xfer/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = resultItem{}
	_ list.Item = suggestionItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TrackCount)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// resultItem wraps the match result at index in the session results.
type resultItem struct {
	index  int
	result models.MatchResult
}

func (i resultItem) FilterValue() string { return i.result.Source.Title }
func (i resultItem) Title() string {
	marker := "  "
	if i.result.Uncertain() {
		marker = "? "
	}
	return fmt.Sprintf("%s%d. %s", marker, i.index+1, i.result.Source)
}

func (i resultItem) Description() string {
	badge := styles.confidence(i.result.Confidence).Render(i.result.Confidence.String())
	if i.result.Matched == nil {
		return fmt.Sprintf("%s • no match • %d suggestions", badge, len(i.result.Suggestions))
	}
	return fmt.Sprintf("%s • %s [%s]", badge, i.result.Matched, formatter.FormatDuration(i.result.Matched.Duration))
}

// suggestionItem is one replacement candidate for a result.
type suggestionItem struct {
	track models.Track
}

func (i suggestionItem) FilterValue() string { return i.track.Title }
func (i suggestionItem) Title() string       { return i.track.String() }
func (i suggestionItem) Description() string {
	desc := formatter.FormatDuration(i.track.Duration)
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}
