// Spotify Web API implementation of [Service] on top of github.com/zmb3/spotify/v2.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// spotifyAddBatch is the maximum number of tracks the API accepts per add request.
const spotifyAddBatch = 100

// SpotifyService implements [Service] for Spotify.
//
// A user access token unlocks every operation. With only client credentials the service can
// search and export public playlists but not list or create playlists.
type SpotifyService struct {
	credentials map[string]string
	baseURL     string
	tokenURL    string
	transport   http.RoundTripper
	client      *spotify.Client
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithSpotifyBaseURL points the client at another API root (must end in "/").
func WithSpotifyBaseURL(url string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = url }
}

// WithSpotifyTokenURL overrides the client credentials token endpoint.
func WithSpotifyTokenURL(url string) SpotifyOption {
	return func(s *SpotifyService) { s.tokenURL = url }
}

// WithSpotifyTransport sets the base transport under the OAuth2 layer.
func WithSpotifyTransport(rt http.RoundTripper) SpotifyOption {
	return func(s *SpotifyService) { s.transport = rt }
}

// NewSpotifyService creates a Spotify service. Either an access_token or a
// client_id/client_secret pair is required.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	hasToken := credentials["access_token"] != ""
	if !hasToken && credentials["client_id"] == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if !hasToken && credentials["client_secret"] == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	s := &SpotifyService{
		credentials: credentials,
		tokenURL:    spotifyauth.TokenURL,
		transport:   http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SpotifyService) Name() string { return models.Spotify.DisplayName() }

func (s *SpotifyService) Platform() models.Platform { return models.Spotify }

func (s *SpotifyService) credential(credentials map[string]string, key string) string {
	if v := credentials[key]; v != "" {
		return v
	}
	return s.credentials[key]
}

// Authenticate builds the API client. Values in credentials take precedence over those
// given to [NewSpotifyService]; an access_token wins over client credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	var httpClient *http.Client

	if token := s.credential(credentials, "access_token"); token != "" {
		httpClient = &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
				Base:   s.transport,
			},
		}
	} else {
		clientID := s.credential(credentials, "client_id")
		clientSecret := s.credential(credentials, "client_secret")
		if clientID == "" || clientSecret == "" {
			return fmt.Errorf("%w: missing access_token or client_id/client_secret", shared.ErrMissingCredentials)
		}

		config := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     s.tokenURL,
		}
		tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: s.transport})
		source := config.TokenSource(tokenCtx)
		if _, err := source.Token(); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		httpClient = oauth2.NewClient(tokenCtx, source)
	}

	var clientOpts []spotify.ClientOption
	if s.baseURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(s.baseURL))
	}
	s.client = spotify.New(httpClient, clientOpts...)
	return nil
}

func (s *SpotifyService) ready() error {
	if s.client == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	return nil
}

// SearchTracks searches the Spotify catalog for tracks.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	results, err := s.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(searchLimit(limit)))
	if err != nil {
		return nil, fmt.Errorf("spotify search: %w", spotifyError(err))
	}
	if results == nil || results.Tracks == nil {
		return []models.Track{}, nil
	}

	tracks := make([]models.Track, 0, len(results.Tracks.Tracks))
	for _, t := range results.Tracks.Tracks {
		tracks = append(tracks, spotifyTrack(t))
	}
	return tracks, nil
}

// GetPlaylists retrieves all playlists of the current user.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	page, err := s.client.CurrentUsersPlaylists(ctx, spotify.Limit(50))
	if err != nil {
		return nil, fmt.Errorf("spotify playlists: %w", spotifyError(err))
	}

	var playlists []models.Playlist
	for {
		for _, p := range page.Playlists {
			playlists = append(playlists, spotifyPlaylist(p))
		}
		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("spotify playlists: %w", spotifyError(err))
		}
	}
	return playlists, nil
}

// ExportPlaylist fetches a playlist and every page of its tracks. Podcast episodes are skipped.
func (s *SpotifyService) ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	full, err := s.client.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		err = spotifyError(err)
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
		}
		return nil, fmt.Errorf("spotify playlist: %w", err)
	}

	page, err := s.client.GetPlaylistItems(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, fmt.Errorf("spotify playlist items: %w", spotifyError(err))
	}

	var tracks []models.Track
	for {
		for _, item := range page.Items {
			if item.Track.Track == nil {
				continue
			}
			tracks = append(tracks, spotifyTrack(*item.Track.Track))
		}
		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("spotify playlist items: %w", spotifyError(err))
		}
	}

	playlist := spotifyPlaylist(full.SimplePlaylist)
	playlist.TrackCount = len(tracks)
	return &models.PlaylistExport{Playlist: playlist, Tracks: tracks}, nil
}

// ImportPlaylist creates a playlist for the current user and adds the tracks in batches.
func (s *SpotifyService) ImportPlaylist(ctx context.Context, export *models.PlaylistExport) (*models.Playlist, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify current user: %w", spotifyError(err))
	}

	created, err := s.client.CreatePlaylistForUser(ctx, user.ID, export.Playlist.Name, export.Playlist.Description, export.Playlist.Public, false)
	if err != nil {
		return nil, fmt.Errorf("spotify create playlist: %w", spotifyError(err))
	}

	ids := make([]spotify.ID, 0, len(export.Tracks))
	for _, t := range export.Tracks {
		if t.ID != "" {
			ids = append(ids, spotify.ID(t.ID))
		}
	}
	for start := 0; start < len(ids); start += spotifyAddBatch {
		end := min(start+spotifyAddBatch, len(ids))
		if _, err := s.client.AddTracksToPlaylist(ctx, created.ID, ids[start:end]...); err != nil {
			return nil, fmt.Errorf("spotify add tracks: %w", spotifyError(err))
		}
	}

	return &models.Playlist{
		ID:          string(created.ID),
		Name:        export.Playlist.Name,
		Description: export.Playlist.Description,
		TrackCount:  len(ids),
		Public:      export.Playlist.Public,
		Platform:    models.Spotify,
	}, nil
}

func spotifyTrack(t spotify.FullTrack) models.Track {
	track := models.NewTrack(models.Spotify, string(t.ID), t.Name, "")
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	track.Album = t.Album.Name
	track.Duration = int(t.Duration / 1000)
	if len(t.Album.Images) > 0 {
		track.ThumbnailURL = t.Album.Images[0].URL
	}
	return track
}

func spotifyPlaylist(p spotify.SimplePlaylist) models.Playlist {
	return models.Playlist{
		ID:         string(p.ID),
		Name:       p.Name,
		TrackCount: int(p.Tracks.Total),
		Public:     p.IsPublic,
		Platform:   models.Spotify,
	}
}

// spotifyError converts the SDK's error type into an [APIError].
func spotifyError(err error) error {
	var se spotify.Error
	if errors.As(err, &se) {
		return &APIError{Service: models.Spotify.DisplayName(), StatusCode: se.Status, Detail: se.Message}
	}
	return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
}
