// Amazon Music Web API implementation of [Service]
//
// Amazon publishes no Go SDK, so requests are plain JSON over [http.Client].
// Every request carries the security profile API key (x-api-key) and the user's
// Login with Amazon bearer token.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/shared"
)

const defaultAmazonBaseURL = "https://api.music.amazon.dev"

type amazonArtist struct {
	Name string `json:"name"`
}

type amazonAlbum struct {
	Title string `json:"title"`
}

type amazonImage struct {
	URL string `json:"url"`
}

// AmazonTrack is a track in Amazon Music responses.
type AmazonTrack struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Artists         []amazonArtist `json:"artists"`
	Album           *amazonAlbum   `json:"album"`
	DurationSeconds int            `json:"durationSeconds"`
	ISRC            string         `json:"isrc"`
	Images          []amazonImage  `json:"images"`
}

// AmazonPlaylist is a playlist in Amazon Music responses.
type AmazonPlaylist struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Visibility  string        `json:"visibility"`
	TrackCount  int           `json:"trackCount"`
	Tracks      []AmazonTrack `json:"tracks,omitempty"`
}

// AmazonService implements [Service] for Amazon Music.
type AmazonService struct {
	api         *jsonClient
	apiKey      string
	accessToken string
}

// NewAmazonService creates an Amazon Music service rooted at baseURL.
func NewAmazonService(baseURL string, httpClient *http.Client) *AmazonService {
	if baseURL == "" {
		baseURL = defaultAmazonBaseURL
	}

	a := &AmazonService{}
	a.api = &jsonClient{
		service:    models.Amazon.DisplayName(),
		baseURL:    baseURL,
		httpClient: httpClient,
		authorize: func(req *http.Request) {
			req.Header.Set("x-api-key", a.apiKey)
			req.Header.Set("Authorization", "Bearer "+a.accessToken)
		},
	}
	return a
}

func (a *AmazonService) Name() string { return models.Amazon.DisplayName() }

func (a *AmazonService) Platform() models.Platform { return models.Amazon }

// Authenticate expects credentials["api_key"] and credentials["access_token"].
func (a *AmazonService) Authenticate(ctx context.Context, credentials map[string]string) error {
	apiKey, token := credentials["api_key"], credentials["access_token"]
	if apiKey == "" {
		return fmt.Errorf("%w: missing api_key", shared.ErrMissingCredentials)
	}
	if token == "" {
		return fmt.Errorf("%w: missing access_token", shared.ErrMissingCredentials)
	}
	a.apiKey, a.accessToken = apiKey, token
	return nil
}

func (a *AmazonService) ready() error {
	if a.accessToken == "" {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	return nil
}

// SearchTracks calls GET /v1/search/tracks.
func (a *AmazonService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("keywords", query)
	params.Set("limit", strconv.Itoa(searchLimit(limit)))

	var resp struct {
		Tracks []AmazonTrack `json:"tracks"`
	}
	if err := a.api.do(ctx, http.MethodGet, "/v1/search/tracks?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("amazon music search: %w", err)
	}

	tracks := make([]models.Track, 0, len(resp.Tracks))
	for _, t := range resp.Tracks {
		tracks = append(tracks, amazonTrack(t))
	}
	return tracks, nil
}

// GetPlaylists follows nextToken through GET /v1/me/playlists.
func (a *AmazonService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	var playlists []models.Playlist
	next := ""
	for {
		endpoint := "/v1/me/playlists"
		if next != "" {
			endpoint += "?nextToken=" + url.QueryEscape(next)
		}

		var resp struct {
			Playlists []AmazonPlaylist `json:"playlists"`
			NextToken string           `json:"nextToken"`
		}
		if err := a.api.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
			return nil, fmt.Errorf("amazon music playlists: %w", err)
		}
		for _, p := range resp.Playlists {
			playlists = append(playlists, amazonPlaylist(p))
		}
		if resp.NextToken == "" {
			return playlists, nil
		}
		next = resp.NextToken
	}
}

// ExportPlaylist calls GET /v1/playlists/{id}.
func (a *AmazonService) ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	var p AmazonPlaylist
	if err := a.api.do(ctx, http.MethodGet, "/v1/playlists/"+url.PathEscape(playlistID), nil, &p); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
		}
		return nil, fmt.Errorf("amazon music playlist: %w", err)
	}

	tracks := make([]models.Track, 0, len(p.Tracks))
	for _, t := range p.Tracks {
		tracks = append(tracks, amazonTrack(t))
	}
	playlist := amazonPlaylist(p)
	playlist.TrackCount = len(tracks)
	return &models.PlaylistExport{Playlist: playlist, Tracks: tracks}, nil
}

// ImportPlaylist creates the playlist with POST /v1/playlists, then appends tracks with
// PUT /v1/playlists/{id}/tracks.
func (a *AmazonService) ImportPlaylist(ctx context.Context, export *models.PlaylistExport) (*models.Playlist, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}

	visibility := "PRIVATE"
	if export.Playlist.Public {
		visibility = "PUBLIC"
	}
	createReq := struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Visibility  string `json:"visibility"`
	}{export.Playlist.Name, export.Playlist.Description, visibility}

	var created AmazonPlaylist
	if err := a.api.do(ctx, http.MethodPost, "/v1/playlists", createReq, &created); err != nil {
		return nil, fmt.Errorf("amazon music create playlist: %w", err)
	}

	ids := make([]string, 0, len(export.Tracks))
	for _, t := range export.Tracks {
		if t.ID != "" {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) > 0 {
		addReq := struct {
			TrackIDs []string `json:"trackIds"`
		}{ids}
		endpoint := "/v1/playlists/" + url.PathEscape(created.ID) + "/tracks"
		if err := a.api.do(ctx, http.MethodPut, endpoint, addReq, nil); err != nil {
			return nil, fmt.Errorf("amazon music add tracks: %w", err)
		}
	}

	return &models.Playlist{
		ID:          created.ID,
		Name:        export.Playlist.Name,
		Description: export.Playlist.Description,
		TrackCount:  len(ids),
		Public:      export.Playlist.Public,
		Platform:    models.Amazon,
	}, nil
}

func amazonTrack(t AmazonTrack) models.Track {
	track := models.NewTrack(models.Amazon, t.ID, t.Title, "")
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	if t.Album != nil {
		track.Album = t.Album.Title
	}
	track.Duration = t.DurationSeconds
	track.ISRC = t.ISRC
	if len(t.Images) > 0 {
		track.ThumbnailURL = t.Images[0].URL
	}
	return track
}

func amazonPlaylist(p AmazonPlaylist) models.Playlist {
	return models.Playlist{
		ID:          p.ID,
		Name:        p.Title,
		Description: p.Description,
		TrackCount:  p.TrackCount,
		Public:      p.Visibility == "PUBLIC",
		Platform:    models.Amazon,
	}
}
