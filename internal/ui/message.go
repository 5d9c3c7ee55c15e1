package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgProgressUpdate
	MsgMatchComplete
	MsgCreateComplete
)

type playlistsPayload struct {
	playlists []models.Playlist
	err       error
}

type matchPayload struct {
	run *tasks.TransferRunResult
	err error
}

type createPayload struct {
	playlist *models.Playlist
	err      error
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsPayload{playlists, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// matchCompleteMsg is the constructor for [MsgMatchComplete]
func matchCompleteMsg(run *tasks.TransferRunResult, err error) Msg {
	return Msg{kind: MsgMatchComplete, data: matchPayload{run, err}}
}

// createCompleteMsg is the constructor for [MsgCreateComplete]
func createCompleteMsg(playlist *models.Playlist, err error) Msg {
	return Msg{kind: MsgCreateComplete, data: createPayload{playlist, err}}
}
