package shared

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override values from config.toml.
const (
	EnvSpotifyClientID     = "SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvSpotifyAccessToken  = "SPOTIFY_ACCESS_TOKEN"
	EnvAppleDeveloperToken = "APPLE_DEVELOPER_TOKEN"
	EnvAppleMusicUserToken = "APPLE_MUSIC_USER_TOKEN"
	EnvAmazonAPIKey        = "AMAZON_API_KEY"
	EnvAmazonAccessToken   = "AMAZON_ACCESS_TOKEN"
	EnvYouTubeProxyURL     = "YTMUSIC_PROXY_URL"
	EnvRedisURL            = "REDIS_URL"
	EnvLogLevel            = "XFER_LOG_LEVEL"
)

// LoadEnv loads variables from the given .env files (default ".env") into the process
// environment without overwriting variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides config values with the non-empty environment variables listed above.
func (c *Config) ApplyEnv() {
	overrides := []struct {
		key    string
		target *string
	}{
		{EnvSpotifyClientID, &c.Credentials.Spotify.ClientID},
		{EnvSpotifyClientSecret, &c.Credentials.Spotify.ClientSecret},
		{EnvSpotifyAccessToken, &c.Credentials.Spotify.AccessToken},
		{EnvAppleDeveloperToken, &c.Credentials.Apple.DeveloperToken},
		{EnvAppleMusicUserToken, &c.Credentials.Apple.MusicUserToken},
		{EnvAmazonAPIKey, &c.Credentials.Amazon.APIKey},
		{EnvAmazonAccessToken, &c.Credentials.Amazon.AccessToken},
		{EnvYouTubeProxyURL, &c.Credentials.YouTube.ProxyURL},
		{EnvRedisURL, &c.Cache.RedisURL},
		{EnvLogLevel, &c.Log.Level},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.target = v
		}
	}
}
