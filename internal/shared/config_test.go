package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./xfer.db" {
			t.Errorf("expected database path ./xfer.db, got %s", config.Database.Path)
		}

		if config.Credentials.YouTube.ProxyURL != "http://127.0.0.1:8080" {
			t.Errorf("expected youtube proxy URL http://127.0.0.1:8080, got %s", config.Credentials.YouTube.ProxyURL)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Cache.Backend != CacheSQLite || config.Cache.TTL.Duration != 24*time.Hour {
			t.Errorf("expected sqlite cache with 24h ttl, got %s/%s", config.Cache.Backend, config.Cache.TTL)
		}

		if config.Matching.TrackDelay() != 100*time.Millisecond {
			t.Errorf("expected 100ms track delay, got %s", config.Matching.TrackDelay())
		}

		if config.Matching.ErrorWarnThreshold != 10 || config.Matching.SearchLimit != 10 {
			t.Errorf("unexpected matching defaults %+v", config.Matching)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[cache]
backend = "redis"
redis_url = "redis://cache:6379/1"
ttl = "2h"

[matching]
search_limit = 5
enrich_suggestions = true

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[credentials.apple]
developer_token = "dev"

[log]
level = "debug"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Cache.Backend != CacheRedis || config.Cache.TTL.Duration != 2*time.Hour {
			t.Errorf("expected redis cache with 2h ttl, got %s/%s", config.Cache.Backend, config.Cache.TTL)
		}

		if config.Matching.SearchLimit != 5 || !config.Matching.EnrichSuggestions {
			t.Errorf("unexpected matching config %+v", config.Matching)
		}

		if config.Matching.TrackDelayMS != 100 {
			t.Errorf("missing keys should keep defaults, got track_delay_ms %d", config.Matching.TrackDelayMS)
		}

		if config.Credentials.Apple.Storefront != "us" {
			t.Errorf("expected default storefront us, got %q", config.Credentials.Apple.Storefront)
		}

		if config.Log.ParsedLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %s", config.Log.ParsedLevel())
		}
	})

	t.Run("LoadConfig Errors", func(t *testing.T) {
		tmpDir := t.TempDir()

		if _, err := LoadConfig(filepath.Join(tmpDir, "missing.toml")); !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}

		cases := map[string]string{
			"malformed":     "[cache\nbackend = ",
			"bad backend":   "[cache]\nbackend = \"memcached\"\n",
			"bad duration":  "[cache]\nttl = \"soon\"\n",
			"negative rate": "[rate]\nburst = -1\n",
		}
		for name, body := range cases {
			path := filepath.Join(tmpDir, name+".toml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatalf("failed to write %s: %v", name, err)
			}
			if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("%s: expected ErrInvalidConfig, got %v", name, err)
			}
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvSpotifyClientID, "from-env")
	t.Setenv(EnvAppleDeveloperToken, "apple-env")
	t.Setenv(EnvRedisURL, "")

	config := DefaultConfig()
	config.ApplyEnv()

	if config.Credentials.Spotify.ClientID != "from-env" {
		t.Errorf("expected env client id, got %s", config.Credentials.Spotify.ClientID)
	}
	if config.Credentials.Apple.DeveloperToken != "apple-env" {
		t.Errorf("expected env developer token, got %s", config.Credentials.Apple.DeveloperToken)
	}
	if config.Cache.RedisURL != "redis://127.0.0.1:6379/0" {
		t.Errorf("empty env values must not override, got %s", config.Cache.RedisURL)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("XFER_TEST_ONLY_VALUE=loaded\n"), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("XFER_TEST_ONLY_VALUE", "")
	os.Unsetenv("XFER_TEST_ONLY_VALUE")

	if err := LoadEnv(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := os.Getenv("XFER_TEST_ONLY_VALUE"); got != "loaded" {
		t.Errorf("expected loaded, got %q", got)
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "xfer.log")

	logger, f, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	logger.Info("hello", "key", "value")
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log output in file")
	}
}
