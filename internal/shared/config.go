package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

//go:embed config.example.toml
var exampleConf []byte

// Cache backends accepted in [CacheConfig.Backend].
const (
	CacheNone   = "none"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Cache       CacheConfig       `toml:"cache"`
	Matching    MatchingConfig    `toml:"matching"`
	Rate        RateConfig        `toml:"rate"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
	Apple   AppleConfig   `toml:"apple"`
	Amazon  AmazonConfig  `toml:"amazon"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	AccessToken  string `toml:"access_token"`
}

// YouTubeConfig contains YouTube Music settings.
type YouTubeConfig struct {
	ProxyURL    string `toml:"proxy_url"`
	HeadersPath string `toml:"headers_path"`
}

// AppleConfig contains Apple Music API tokens.
type AppleConfig struct {
	DeveloperToken string `toml:"developer_token"`
	MusicUserToken string `toml:"music_user_token"`
	Storefront     string `toml:"storefront"`
}

// AmazonConfig contains Amazon Music API settings.
type AmazonConfig struct {
	BaseURL     string `toml:"base_url"`
	APIKey      string `toml:"api_key"`
	AccessToken string `toml:"access_token"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CacheConfig selects where search results are cached.
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`
}

// MatchingConfig tunes the match session.
type MatchingConfig struct {
	SearchLimit        int  `toml:"search_limit"`
	TrackDelayMS       int  `toml:"track_delay_ms"`
	EnrichSuggestions  bool `toml:"enrich_suggestions"`
	ErrorWarnThreshold int  `toml:"error_warn_threshold"`
}

// TrackDelay returns the configured pause between tracks.
func (m MatchingConfig) TrackDelay() time.Duration {
	return time.Duration(m.TrackDelayMS) * time.Millisecond
}

// RateConfig limits outgoing requests per platform.
type RateConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// ParsedLevel returns the configured [log.Level], defaulting to info.
func (l LogConfig) ParsedLevel() log.Level {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Duration is a [time.Duration] decoded from strings such as "24h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Validate reports configuration values the application cannot work with.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "", CacheNone, CacheSQLite, CacheRedis:
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisURL == "" {
		return fmt.Errorf("%w: cache.redis_url is required for the redis backend", ErrInvalidConfig)
	}
	if c.Matching.SearchLimit < 0 || c.Matching.TrackDelayMS < 0 || c.Matching.ErrorWarnThreshold < 0 {
		return fmt.Errorf("%w: matching values must not be negative", ErrInvalidConfig)
	}
	if c.Rate.RequestsPerSecond < 0 || c.Rate.Burst < 0 {
		return fmt.Errorf("%w: rate values must not be negative", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
