// YouTube Music [Service] implementation
//
// Searches go straight to YouTube Music through github.com/raitonoberu/ytmusic, which needs
// no credentials. Library operations go through the ytmusicapi proxy server, which owns the
// browser authentication headers.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/shared"
	"github.com/raitonoberu/ytmusic"
	"golang.org/x/time/rate"
)

const defaultYTBaseURL string = "http://localhost:8080"

// YouTubeImage represents an image/thumbnail from YouTube Music.
type YouTubeImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a track/video in proxy responses.
type YouTubeTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Album       *youtubeAlbum   `json:"album"`
	DurationSec int             `json:"duration_seconds"`
	Thumbnails  []YouTubeImage  `json:"thumbnails"`
	ISRC        string          `json:"isrc,omitempty"`
}

// YouTubePlaylist represents a playlist from the proxy.
type YouTubePlaylist struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Privacy     string         `json:"privacy"`
	TrackCount  int            `json:"trackCount"`
	Tracks      []YouTubeTrack `json:"tracks,omitempty"`
}

type youtubeLibraryPlaylist struct {
	PlaylistID  string `json:"playlistId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Privacy     string `json:"privacy"`
	Count       int    `json:"count"`
}

// trackSearchFunc runs a YouTube Music song search.
type trackSearchFunc func(query string) ([]*ytmusic.TrackItem, error)

func ytmusicSearch(query string) ([]*ytmusic.TrackItem, error) {
	result, err := ytmusic.Search(query).Next()
	if err != nil {
		return nil, err
	}
	return result.Tracks, nil
}

// YouTubeService implements [Service] for YouTube Music.
type YouTubeService struct {
	api      *jsonClient
	authFile string
	search   trackSearchFunc
	limiter  *rate.Limiter
}

// NewYouTubeService creates a YouTube Music service talking to the proxy at baseURL.
// A nil httpClient uses [http.DefaultClient]; a nil limiter disables search throttling.
func NewYouTubeService(baseURL string, httpClient *http.Client, limiter *rate.Limiter) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	y := &YouTubeService{search: ytmusicSearch, limiter: limiter}
	y.api = &jsonClient{
		service:    models.YouTube.DisplayName(),
		baseURL:    baseURL,
		httpClient: httpClient,
		authorize: func(req *http.Request) {
			if y.authFile != "" {
				req.Header.Set("X-Auth-File", y.authFile)
			}
		},
	}
	return y
}

func (y *YouTubeService) Name() string { return models.YouTube.DisplayName() }

func (y *YouTubeService) Platform() models.Platform { return models.YouTube }

// Authenticate stores the proxy authentication file path for subsequent requests.
//
// Expects credentials["auth_file"] to contain the path to browser.json or oauth.json.
// Search works without it.
func (y *YouTubeService) Authenticate(ctx context.Context, credentials map[string]string) error {
	authFile, ok := credentials["auth_file"]
	if !ok || authFile == "" {
		return fmt.Errorf("%w: missing auth_file", shared.ErrMissingCredentials)
	}

	y.authFile = authFile
	return nil
}

// SearchTracks searches YouTube Music songs.
func (y *YouTubeService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if y.limiter != nil {
		if err := y.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := y.search(query)
	if err != nil {
		return nil, fmt.Errorf("%w: youtube music search: %v", shared.ErrAPIRequest, err)
	}

	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		if item == nil || item.VideoID == "" {
			continue
		}
		tracks = append(tracks, ytmusicTrack(item))
	}
	return truncate(tracks, searchLimit(limit)), nil
}

// GetPlaylists retrieves all playlists for the authenticated user.
//
// Calls GET /api/library/playlists on the proxy.
func (y *YouTubeService) GetPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var library []youtubeLibraryPlaylist
	if err := y.api.do(ctx, http.MethodGet, "/api/library/playlists", nil, &library); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, len(library))
	for i, p := range library {
		playlists[i] = models.Playlist{
			ID:          p.PlaylistID,
			Name:        p.Title,
			Description: p.Description,
			TrackCount:  p.Count,
			Public:      p.Privacy == "PUBLIC",
			Platform:    models.YouTube,
		}
	}
	return playlists, nil
}

// ExportPlaylist exports a playlist with all its tracks.
//
// Calls GET /api/playlists/{id} on the proxy.
func (y *YouTubeService) ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
	var yt YouTubePlaylist
	endpoint := "/api/playlists/" + url.PathEscape(playlistID)
	if err := y.api.do(ctx, http.MethodGet, endpoint, nil, &yt); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
		}
		return nil, err
	}

	tracks := make([]models.Track, 0, len(yt.Tracks))
	for _, t := range yt.Tracks {
		tracks = append(tracks, proxyTrack(t))
	}

	return &models.PlaylistExport{
		Playlist: models.Playlist{
			ID:          yt.ID,
			Name:        yt.Title,
			Description: yt.Description,
			TrackCount:  len(tracks),
			Public:      yt.Privacy == "PUBLIC",
			Platform:    models.YouTube,
		},
		Tracks: tracks,
	}, nil
}

// ImportPlaylist creates the playlist via POST /api/playlists and adds tracks via
// POST /api/playlists/{id}/items.
func (y *YouTubeService) ImportPlaylist(ctx context.Context, export *models.PlaylistExport) (*models.Playlist, error) {
	privacy := "PRIVATE"
	if export.Playlist.Public {
		privacy = "PUBLIC"
	}

	createReq := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{export.Playlist.Name, export.Playlist.Description, privacy}

	var createResp struct {
		PlaylistID string `json:"playlist_id"`
	}
	if err := y.api.do(ctx, http.MethodPost, "/api/playlists", createReq, &createResp); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	videoIDs := make([]string, 0, len(export.Tracks))
	for _, t := range export.Tracks {
		if t.ID != "" {
			videoIDs = append(videoIDs, t.ID)
		}
	}

	if len(videoIDs) > 0 {
		addReq := struct {
			VideoIDs []string `json:"video_ids"`
		}{videoIDs}
		endpoint := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(createResp.PlaylistID))
		if err := y.api.do(ctx, http.MethodPost, endpoint, addReq, nil); err != nil {
			return nil, fmt.Errorf("failed to add tracks to playlist: %w", err)
		}
	}

	return &models.Playlist{
		ID:          createResp.PlaylistID,
		Name:        export.Playlist.Name,
		Description: export.Playlist.Description,
		TrackCount:  len(videoIDs),
		Public:      export.Playlist.Public,
		Platform:    models.YouTube,
	}, nil
}

func ytmusicTrack(item *ytmusic.TrackItem) models.Track {
	track := models.NewTrack(models.YouTube, item.VideoID, item.Title, "")
	if len(item.Artists) > 0 {
		track.Artist = item.Artists[0].Name
	}
	track.Album = item.Album.Name
	track.Duration = item.Duration
	if len(item.Thumbnails) > 0 {
		track.ThumbnailURL = item.Thumbnails[len(item.Thumbnails)-1].URL
	}
	return track
}

func proxyTrack(t YouTubeTrack) models.Track {
	track := models.NewTrack(models.YouTube, t.VideoID, t.Title, "")
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	if t.Album != nil {
		track.Album = t.Album.Name
	}
	track.Duration = t.DurationSec
	track.ISRC = t.ISRC
	if len(t.Thumbnails) > 0 {
		track.ThumbnailURL = t.Thumbnails[len(t.Thumbnails)-1].URL
	}
	return track
}
