package main

import (
	"io"
	"testing"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/shared"
)

func TestBuildRegistry(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("only youtube without credentials", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Credentials.Spotify = shared.SpotifyConfig{}

		available := buildRegistry(cfg, logger).Available()
		if len(available) != 1 || available[0] != models.YouTube {
			t.Errorf("expected [youtube], got %v", available)
		}
	})

	t.Run("every platform with credentials", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Credentials.Spotify.AccessToken = "token"
		cfg.Credentials.Apple.DeveloperToken = "dev"
		cfg.Credentials.Amazon.APIKey = "key"

		registry := buildRegistry(cfg, logger)
		for _, p := range models.Platforms {
			svc, err := registry.Get(p)
			if err != nil {
				t.Errorf("expected %s to be registered: %v", p, err)
				continue
			}
			if svc.Platform() != p {
				t.Errorf("expected service for %s, got %s", p, svc.Platform())
			}
		}
	})

	t.Run("zero rate limit disables throttling", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Rate.RequestsPerSecond = 0
		cfg.Rate.Burst = 0

		if _, err := buildRegistry(cfg, logger).Get(models.YouTube); err != nil {
			t.Errorf("expected youtube to be registered: %v", err)
		}
	})
}

func TestCredentials(t *testing.T) {
	cfg := shared.DefaultConfig()
	cfg.Credentials.Spotify = shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret", AccessToken: "tok"}
	cfg.Credentials.YouTube.HeadersPath = "headers.json"
	cfg.Credentials.Apple = shared.AppleConfig{DeveloperToken: "dev", MusicUserToken: "user", Storefront: "gb"}
	cfg.Credentials.Amazon.APIKey = "key"
	cfg.Credentials.Amazon.AccessToken = "amz"

	tests := []struct {
		platform models.Platform
		key      string
		want     string
	}{
		{models.Spotify, "client_id", "id"},
		{models.Spotify, "client_secret", "secret"},
		{models.Spotify, "access_token", "tok"},
		{models.YouTube, "auth_file", "headers.json"},
		{models.Apple, "developer_token", "dev"},
		{models.Apple, "music_user_token", "user"},
		{models.Apple, "storefront", "gb"},
		{models.Amazon, "api_key", "key"},
		{models.Amazon, "access_token", "amz"},
	}

	for _, tt := range tests {
		t.Run(string(tt.platform)+"/"+tt.key, func(t *testing.T) {
			if got := credentials(cfg, tt.platform)[tt.key]; got != tt.want {
				t.Errorf("credentials(%s)[%s] = %q, want %q", tt.platform, tt.key, got, tt.want)
			}
		})
	}

	t.Run("unknown platform", func(t *testing.T) {
		if got := credentials(cfg, models.Platform("tidal")); len(got) != 0 {
			t.Errorf("expected no credentials, got %v", got)
		}
	})
}
