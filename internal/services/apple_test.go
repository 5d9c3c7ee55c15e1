package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/shared"
	applemusic "github.com/minchao/go-apple-music"
)

const appleSongJSON = `{"id": "1440833098", "type": "songs", "attributes": {
  "name": "Imagine", "artistName": "John Lennon", "albumName": "Imagine",
  "durationInMillis": 183907,
  "artwork": {"url": "https://is1.mzstatic.com/image/{w}x{h}bb.jpg", "width": 1400, "height": 1400}
}}`

func newTestApple(t *testing.T, handler http.HandlerFunc, credentials map[string]string) *AppleService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewAppleService("", nil, WithAppleBaseURL(server.URL+"/"))
	if err := svc.Authenticate(context.Background(), credentials); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	return svc
}

func TestAppleService(t *testing.T) {
	t.Run("Name", func(t *testing.T) {
		svc := NewAppleService("", nil)
		if svc.Name() != "Apple Music" {
			t.Errorf("expected name 'Apple Music', got %s", svc.Name())
		}
		if svc.storefront != "us" {
			t.Errorf("expected default storefront us, got %s", svc.storefront)
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("requires developer token", func(t *testing.T) {
			err := NewAppleService("", nil).Authenticate(context.Background(), map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("overrides storefront", func(t *testing.T) {
			svc := NewAppleService("us", nil)
			err := svc.Authenticate(context.Background(), map[string]string{"developer_token": "dev", "storefront": "gb"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc.storefront != "gb" {
				t.Errorf("expected storefront gb, got %s", svc.storefront)
			}
		})
	})

	t.Run("Not Authenticated", func(t *testing.T) {
		svc := NewAppleService("", nil)
		if _, err := svc.SearchTracks(context.Background(), "q", 1); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Library Needs User Token", func(t *testing.T) {
		svc := NewAppleService("", nil)
		_ = svc.Authenticate(context.Background(), map[string]string{"developer_token": "dev"})
		if _, err := svc.GetPlaylists(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if _, err := svc.ImportPlaylist(context.Background(), &models.PlaylistExport{}); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("SearchTracks", func(t *testing.T) {
		var gotAuth, gotPath, gotTerm string
		svc := newTestApple(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			gotTerm = r.URL.Query().Get("term")
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"results": {"songs": {"href": "", "data": [`+appleSongJSON+`]}}}`)
		}, map[string]string{"developer_token": "dev-token"})

		tracks, err := svc.SearchTracks(context.Background(), "John Lennon Imagine", 5)
		if err != nil {
			t.Fatalf("SearchTracks() error = %v", err)
		}
		if gotAuth != "Bearer dev-token" {
			t.Errorf("expected developer token bearer, got %q", gotAuth)
		}
		if !strings.Contains(gotPath, "/catalog/us/search") {
			t.Errorf("unexpected path %s", gotPath)
		}
		if gotTerm != "John Lennon Imagine" {
			t.Errorf("unexpected term %q", gotTerm)
		}
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}
		if tracks[0].ID != "1440833098" || tracks[0].Artist != "John Lennon" || tracks[0].Duration != 183 {
			t.Errorf("unexpected track %+v", tracks[0])
		}
	})

	t.Run("SearchTracks Without Songs", func(t *testing.T) {
		svc := newTestApple(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"results": {}}`)
		}, map[string]string{"developer_token": "dev"})

		tracks, err := svc.SearchTracks(context.Background(), "nothing", 5)
		if err != nil {
			t.Fatalf("SearchTracks() error = %v", err)
		}
		if tracks == nil || len(tracks) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", tracks)
		}
	})

	t.Run("SearchTracks Failure", func(t *testing.T) {
		svc := newTestApple(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"errors": [{"status": "401", "title": "Unauthorized"}]}`)
		}, map[string]string{"developer_token": "expired"})

		if _, err := svc.SearchTracks(context.Background(), "q", 5); err == nil {
			t.Fatal("expected error for 401")
		}
	})

	t.Run("ExportPlaylist", func(t *testing.T) {
		svc := newTestApple(t, func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.URL.Path, "/catalog/us/playlists/pl.123") {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"data": [{"id": "pl.123", "type": "playlists",
			  "attributes": {"name": "Chill Mix"},
			  "relationships": {"tracks": {"data": [`+appleSongJSON+`]}}}]}`)
		}, map[string]string{"developer_token": "dev"})

		export, err := svc.ExportPlaylist(context.Background(), "pl.123")
		if err != nil {
			t.Fatalf("ExportPlaylist() error = %v", err)
		}
		if export.Playlist.ID != "pl.123" || export.Playlist.Name != "Chill Mix" {
			t.Errorf("unexpected playlist %+v", export.Playlist)
		}
		if len(export.Tracks) != 1 || export.Tracks[0].Title != "Imagine" {
			t.Errorf("unexpected tracks %+v", export.Tracks)
		}
	})
}

func TestAppleTrack(t *testing.T) {
	var song applemusic.Song
	if err := json.Unmarshal([]byte(appleSongJSON), &song); err != nil {
		t.Fatalf("failed to decode song: %v", err)
	}

	track := appleTrack(song)
	if track.Platform != models.Apple || track.OriginalID != "1440833098" {
		t.Errorf("unexpected identity %+v", track)
	}
	if track.Album != "Imagine" {
		t.Errorf("expected album Imagine, got %s", track.Album)
	}
	if track.ThumbnailURL != "https://is1.mzstatic.com/image/300x300bb.jpg" {
		t.Errorf("unexpected artwork %s", track.ThumbnailURL)
	}
}
