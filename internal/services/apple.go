// Apple Music implementation of [Service] on top of github.com/minchao/go-apple-music.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/shared"
	applemusic "github.com/minchao/go-apple-music"
)

const (
	defaultStorefront = "us"
	appleArtworkSize  = "300x300"
	applePageSize     = 100
)

// AppleService implements [Service] for Apple Music.
//
// The developer token is enough for catalog search and catalog playlists; library
// operations also need a music user token.
type AppleService struct {
	storefront     string
	developerToken string
	userToken      string
	baseURL        string
	transport      http.RoundTripper
	client         *applemusic.Client
}

// AppleOption configures an [AppleService].
type AppleOption func(*AppleService)

// WithAppleBaseURL points the client at another API root (must end in "/").
func WithAppleBaseURL(url string) AppleOption {
	return func(a *AppleService) { a.baseURL = url }
}

// NewAppleService creates an Apple Music service for storefront (default "us").
// A nil transport uses [http.DefaultTransport].
func NewAppleService(storefront string, transport http.RoundTripper, opts ...AppleOption) *AppleService {
	if storefront == "" {
		storefront = defaultStorefront
	}
	a := &AppleService{storefront: storefront, transport: transport}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *AppleService) Name() string { return models.Apple.DisplayName() }

func (a *AppleService) Platform() models.Platform { return models.Apple }

// Authenticate expects credentials["developer_token"] and optionally
// credentials["music_user_token"] and credentials["storefront"].
func (a *AppleService) Authenticate(ctx context.Context, credentials map[string]string) error {
	token := credentials["developer_token"]
	if token == "" {
		return fmt.Errorf("%w: missing developer_token", shared.ErrMissingCredentials)
	}
	if sf := credentials["storefront"]; sf != "" {
		a.storefront = sf
	}
	a.developerToken = token
	a.userToken = credentials["music_user_token"]

	tp := applemusic.Transport{Token: a.developerToken, MusicUserToken: a.userToken, Transport: a.transport}
	client := applemusic.NewClient(tp.Client())
	if a.baseURL != "" {
		base, err := url.Parse(a.baseURL)
		if err != nil {
			return fmt.Errorf("%w: apple base url: %v", shared.ErrInvalidConfig, err)
		}
		client.BaseURL = base
	}
	a.client = client
	return nil
}

func (a *AppleService) ready(needUser bool) error {
	if a.client == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	if needUser && a.userToken == "" {
		return fmt.Errorf("%w: music_user_token required for library access", shared.ErrNotAuthenticated)
	}
	return nil
}

// SearchTracks searches the storefront catalog for songs.
func (a *AppleService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if err := a.ready(false); err != nil {
		return nil, err
	}

	results, _, err := a.client.Catalog.Search(ctx, a.storefront, &applemusic.SearchOptions{
		Term:  query,
		Types: "songs",
		Limit: searchLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("apple music search: %w", appleError(err))
	}
	if results == nil || results.Results.Songs == nil {
		return []models.Track{}, nil
	}

	tracks := make([]models.Track, 0, len(results.Results.Songs.Data))
	for _, song := range results.Results.Songs.Data {
		tracks = append(tracks, appleTrack(song))
	}
	return tracks, nil
}

// GetPlaylists lists the user's library playlists.
func (a *AppleService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if err := a.ready(true); err != nil {
		return nil, err
	}

	var playlists []models.Playlist
	for offset := 0; ; {
		page, _, err := a.client.Me.GetAllLibraryPlaylists(ctx, &applemusic.PageOptions{Limit: applePageSize, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("apple music playlists: %w", appleError(err))
		}
		for _, p := range page.Data {
			playlists = append(playlists, models.Playlist{
				ID:       p.Id,
				Name:     p.Attributes.Name,
				Platform: models.Apple,
			})
		}
		if page.Next == "" || len(page.Data) == 0 {
			break
		}
		offset += len(page.Data)
	}
	return playlists, nil
}

// ExportPlaylist exports a catalog playlist with its tracks.
func (a *AppleService) ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
	if err := a.ready(false); err != nil {
		return nil, err
	}

	results, _, err := a.client.Catalog.GetPlaylist(ctx, a.storefront, playlistID, nil)
	if err != nil {
		err = appleError(err)
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
		}
		return nil, fmt.Errorf("apple music playlist: %w", err)
	}
	if results == nil || len(results.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	data := results.Data[0]
	var tracks []models.Track
	for _, item := range data.Relationships.Tracks.Data {
		parsed, err := item.Parse()
		if err != nil {
			return nil, fmt.Errorf("apple music track: %w", err)
		}
		if song, ok := parsed.(*applemusic.Song); ok {
			tracks = append(tracks, appleTrack(*song))
		}
	}

	return &models.PlaylistExport{
		Playlist: models.Playlist{
			ID:         data.Id,
			Name:       data.Attributes.Name,
			TrackCount: len(tracks),
			Public:     true,
			Platform:   models.Apple,
		},
		Tracks: tracks,
	}, nil
}

// ImportPlaylist creates a library playlist holding the catalog songs in export.
func (a *AppleService) ImportPlaylist(ctx context.Context, export *models.PlaylistExport) (*models.Playlist, error) {
	if err := a.ready(true); err != nil {
		return nil, err
	}

	created, _, err := a.client.Me.CreateLibraryPlaylist(ctx, applemusic.CreateLibraryPlaylist{
		Attributes: applemusic.CreateLibraryPlaylistAttributes{
			Name:        export.Playlist.Name,
			Description: export.Playlist.Description,
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("apple music create playlist: %w", appleError(err))
	}
	if created == nil || len(created.Data) == 0 {
		return nil, fmt.Errorf("%w: apple music returned no playlist", shared.ErrAPIRequest)
	}
	playlistID := created.Data[0].Id

	songs := make([]applemusic.CreateLibraryPlaylistTrack, 0, len(export.Tracks))
	for _, t := range export.Tracks {
		if t.ID != "" {
			songs = append(songs, applemusic.CreateLibraryPlaylistTrack{Id: t.ID, Type: "songs"})
		}
	}
	if len(songs) > 0 {
		_, err := a.client.Me.AddLibraryTracksToPlaylist(ctx, playlistID, applemusic.CreateLibraryPlaylistTrackData{Data: songs})
		if err != nil {
			return nil, fmt.Errorf("apple music add tracks: %w", appleError(err))
		}
	}

	return &models.Playlist{
		ID:          playlistID,
		Name:        export.Playlist.Name,
		Description: export.Playlist.Description,
		TrackCount:  len(songs),
		Platform:    models.Apple,
	}, nil
}

func appleTrack(song applemusic.Song) models.Track {
	attrs := song.Attributes
	track := models.NewTrack(models.Apple, song.Id, attrs.Name, attrs.ArtistName)
	track.Album = attrs.AlbumName
	track.Duration = int(attrs.DurationInMillis / 1000)
	track.ThumbnailURL = appleArtwork(attrs.Artwork.URL)
	return track
}

// appleArtwork fills the {w}x{h} template Apple uses for artwork URLs.
func appleArtwork(template string) string {
	return strings.ReplaceAll(template, "{w}x{h}", appleArtworkSize)
}

// appleError converts the SDK's error response into an [APIError].
func appleError(err error) error {
	var er *applemusic.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return &APIError{Service: models.Apple.DisplayName(), StatusCode: er.Response.StatusCode, Detail: er.Error()}
	}
	return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
}
