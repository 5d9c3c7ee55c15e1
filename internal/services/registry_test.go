package services

import (
	"errors"
	"slices"
	"testing"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/shared"
	tu "github.com/desertthunder/xfer/internal/testing"
)

func TestRegistry(t *testing.T) {
	spotify := tu.NewMockService(models.Spotify)
	youtube := tu.NewMockService(models.YouTube)
	r := NewRegistry(spotify, youtube)

	t.Run("Get", func(t *testing.T) {
		svc, err := r.Get(models.Spotify)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if svc != Service(spotify) {
			t.Error("expected registered spotify service")
		}
	})

	t.Run("Get unregistered", func(t *testing.T) {
		if _, err := r.Get(models.Amazon); !errors.Is(err, shared.ErrUnsupportedPlatform) {
			t.Errorf("expected ErrUnsupportedPlatform, got %v", err)
		}
	})

	t.Run("Lookup alias", func(t *testing.T) {
		svc, err := r.Lookup("ytmusic")
		if err != nil {
			t.Fatalf("Lookup() error = %v", err)
		}
		if svc.Platform() != models.YouTube {
			t.Errorf("expected youtube, got %s", svc.Platform())
		}
	})

	t.Run("Lookup unknown", func(t *testing.T) {
		if _, err := r.Lookup("tidal"); !errors.Is(err, shared.ErrUnsupportedPlatform) {
			t.Errorf("expected ErrUnsupportedPlatform, got %v", err)
		}
	})

	t.Run("Available in display order", func(t *testing.T) {
		want := []models.Platform{models.YouTube, models.Spotify}
		if got := r.Available(); !slices.Equal(got, want) {
			t.Errorf("Available() = %v, want %v", got, want)
		}
	})

	t.Run("Register replaces", func(t *testing.T) {
		replacement := tu.NewMockService(models.Spotify)
		r.Register(replacement)
		svc, _ := r.Get(models.Spotify)
		if svc != Service(replacement) {
			t.Error("expected replacement service")
		}
	})
}
