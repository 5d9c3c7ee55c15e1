package main

import (
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/services"
	"github.com/desertthunder/xfer/internal/shared"
)

// buildRegistry registers a service for every platform with usable settings.
//
// YouTube Music is always available since search needs no credentials. Every platform
// gets its own rate limit so a slow provider never throttles another.
func buildRegistry(cfg *shared.Config, logger *log.Logger) *services.Registry {
	registry := services.NewRegistry()
	rps, burst := cfg.Rate.RequestsPerSecond, cfg.Rate.Burst
	transportLogger := shared.WithLogger(logger, "component", "transport")

	spotify, err := services.NewSpotifyService(
		credentials(cfg, models.Spotify),
		services.WithSpotifyTransport(services.NewTransport(nil, rps, burst, transportLogger)),
	)
	if err != nil {
		logger.Debug("spotify disabled", "reason", err)
	} else {
		registry.Register(spotify)
	}

	var searchLimit *rate.Limiter
	if rps > 0 {
		searchLimit = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
	registry.Register(services.NewYouTubeService(
		cfg.Credentials.YouTube.ProxyURL,
		services.NewHTTPClient(rps, burst, transportLogger),
		searchLimit,
	))

	if cfg.Credentials.Apple.DeveloperToken != "" {
		registry.Register(services.NewAppleService(
			cfg.Credentials.Apple.Storefront,
			services.NewTransport(nil, rps, burst, transportLogger),
		))
	} else {
		logger.Debug("apple music disabled", "reason", "missing developer_token")
	}

	if cfg.Credentials.Amazon.APIKey != "" {
		registry.Register(services.NewAmazonService(
			cfg.Credentials.Amazon.BaseURL,
			services.NewHTTPClient(rps, burst, transportLogger),
		))
	} else {
		logger.Debug("amazon music disabled", "reason", "missing api_key")
	}

	return registry
}

// credentials maps the config section of platform onto the keys its Authenticate expects.
func credentials(cfg *shared.Config, platform models.Platform) map[string]string {
	c := cfg.Credentials
	switch platform {
	case models.Spotify:
		return map[string]string{
			"client_id":     c.Spotify.ClientID,
			"client_secret": c.Spotify.ClientSecret,
			"access_token":  c.Spotify.AccessToken,
		}
	case models.YouTube:
		return map[string]string{"auth_file": c.YouTube.HeadersPath}
	case models.Apple:
		return map[string]string{
			"developer_token":  c.Apple.DeveloperToken,
			"music_user_token": c.Apple.MusicUserToken,
			"storefront":       c.Apple.Storefront,
		}
	case models.Amazon:
		return map[string]string{
			"api_key":      c.Amazon.APIKey,
			"access_token": c.Amazon.AccessToken,
		}
	default:
		return map[string]string{}
	}
}
