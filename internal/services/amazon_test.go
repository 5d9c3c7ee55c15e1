package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/shared"
)

func newTestAmazon(t *testing.T, handler http.HandlerFunc) *AmazonService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewAmazonService(server.URL, nil)
	if err := svc.Authenticate(context.Background(), map[string]string{"api_key": "key", "access_token": "tok"}); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	return svc
}

func TestAmazonService(t *testing.T) {
	t.Run("Authenticate", func(t *testing.T) {
		tests := []struct {
			name  string
			creds map[string]string
		}{
			{name: "missing api key", creds: map[string]string{"access_token": "tok"}},
			{name: "missing access token", creds: map[string]string{"api_key": "key"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := NewAmazonService("", nil).Authenticate(context.Background(), tt.creds)
				if !errors.Is(err, shared.ErrMissingCredentials) {
					t.Errorf("expected ErrMissingCredentials, got %v", err)
				}
			})
		}
	})

	t.Run("Not Authenticated", func(t *testing.T) {
		svc := NewAmazonService("", nil)
		if _, err := svc.SearchTracks(context.Background(), "q", 1); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("SearchTracks", func(t *testing.T) {
		svc := newTestAmazon(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/search/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("x-api-key") != "key" || r.Header.Get("Authorization") != "Bearer tok" {
				t.Errorf("missing auth headers: %v", r.Header)
			}
			if r.URL.Query().Get("keywords") != "Queen Bohemian Rhapsody" || r.URL.Query().Get("limit") != "10" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"tracks": []map[string]any{{
					"id": "B01", "title": "Bohemian Rhapsody", "artists": []map[string]any{{"name": "Queen"}},
					"album": map[string]any{"title": "A Night at the Opera"}, "durationSeconds": 355,
					"isrc": "GBUM71029604", "images": []map[string]any{{"url": "cover.jpg"}},
				}},
			})
		})

		tracks, err := svc.SearchTracks(context.Background(), "Queen Bohemian Rhapsody", 0)
		if err != nil {
			t.Fatalf("SearchTracks() error = %v", err)
		}
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}
		got := tracks[0]
		want := models.Track{
			ID: "B01", Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera",
			Duration: 355, ThumbnailURL: "cover.jpg", Platform: models.Amazon, OriginalID: "B01", ISRC: "GBUM71029604",
		}
		if got != want {
			t.Errorf("SearchTracks() = %+v, want %+v", got, want)
		}
	})

	t.Run("GetPlaylists Follows NextToken", func(t *testing.T) {
		calls := 0
		svc := newTestAmazon(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if r.URL.Query().Get("nextToken") == "" {
				json.NewEncoder(w).Encode(map[string]any{
					"playlists": []map[string]any{{"id": "p1", "title": "One", "visibility": "PUBLIC", "trackCount": 3}},
					"nextToken": "page2",
				})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"playlists": []map[string]any{{"id": "p2", "title": "Two", "visibility": "PRIVATE"}},
			})
		})

		playlists, err := svc.GetPlaylists(context.Background())
		if err != nil {
			t.Fatalf("GetPlaylists() error = %v", err)
		}
		if calls != 2 || len(playlists) != 2 {
			t.Fatalf("expected 2 pages and 2 playlists, got %d calls %d playlists", calls, len(playlists))
		}
		if !playlists[0].Public || playlists[1].Public || playlists[0].TrackCount != 3 {
			t.Errorf("unexpected playlists %+v", playlists)
		}
	})

	t.Run("ExportPlaylist Not Found", func(t *testing.T) {
		svc := newTestAmazon(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "no such playlist"})
		})

		if _, err := svc.ExportPlaylist(context.Background(), "missing"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("ImportPlaylist", func(t *testing.T) {
		var added []string
		svc := newTestAmazon(t, func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Method == http.MethodPost && r.URL.Path == "/v1/playlists":
				var req struct {
					Title      string `json:"title"`
					Visibility string `json:"visibility"`
				}
				json.NewDecoder(r.Body).Decode(&req)
				if req.Title != "Road Trip" || req.Visibility != "PRIVATE" {
					t.Errorf("unexpected create request %+v", req)
				}
				json.NewEncoder(w).Encode(map[string]any{"id": "new-pl", "title": req.Title})
			case r.Method == http.MethodPut && r.URL.Path == "/v1/playlists/new-pl/tracks":
				var req struct {
					TrackIDs []string `json:"trackIds"`
				}
				json.NewDecoder(r.Body).Decode(&req)
				added = req.TrackIDs
				w.WriteHeader(http.StatusNoContent)
			default:
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				w.WriteHeader(http.StatusNotFound)
			}
		})

		created, err := svc.ImportPlaylist(context.Background(), &models.PlaylistExport{
			Playlist: models.Playlist{Name: "Road Trip"},
			Tracks: []models.Track{
				models.NewTrack(models.Amazon, "B01", "A", "x"),
				{Title: "unmatched"},
				models.NewTrack(models.Amazon, "B02", "B", "y"),
			},
		})
		if err != nil {
			t.Fatalf("ImportPlaylist() error = %v", err)
		}
		if created.ID != "new-pl" || created.TrackCount != 2 {
			t.Errorf("unexpected playlist %+v", created)
		}
		if len(added) != 2 || added[0] != "B01" || added[1] != "B02" {
			t.Errorf("expected [B01 B02], got %v", added)
		}
	})
}
