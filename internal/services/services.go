package services

import (
	"context"

	"github.com/desertthunder/xfer/internal/models"
)

// DefaultSearchLimit is the number of candidates requested per search when the caller passes 0.
const DefaultSearchLimit = 10

// Searcher finds candidate tracks for a free-text query on a single platform.
//
// An empty slice with a nil error means the platform had no results.
type Searcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error)
}

// Service defines the interface for music service providers that can search tracks and export and import playlists.
type Service interface {
	Searcher

	// Authenticate configures credentials for the service.
	// Returns an error if required credentials are missing or rejected.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// GetPlaylists retrieves all playlists for the authenticated user.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)

	// ExportPlaylist exports a playlist with all its tracks.
	ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error)

	// ImportPlaylist creates a new playlist and populates it with the provided tracks.
	ImportPlaylist(ctx context.Context, playlist *models.PlaylistExport) (*models.Playlist, error)

	// Platform returns the platform the service talks to.
	Platform() models.Platform

	// Name returns the display name of the service (e.g., "Spotify", "YouTube Music")
	Name() string
}

func searchLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return limit
}
