package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/xfer/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the embedded template when missing and initializes the
// configured search cache (running migrations for sqlite).
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file exists, leaving it untouched", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return err
		}
		config.ApplyEnv()
		r.config = config
		r.writePlain("✓ Config written to %s\n", configPath)
	}

	switch r.config.Cache.Backend {
	case shared.CacheSQLite:
		r.logger.Info("initializing database", "path", r.config.Database.Path)
	case shared.CacheRedis:
		r.logger.Info("connecting to redis", "url", r.config.Cache.RedisURL)
	default:
		r.writePlain("Search cache disabled\n")
	}

	cache, err := r.searchCache(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize search cache: %w", err)
	}
	if cache != nil {
		r.writePlain("✓ Search cache ready (%s)\n", r.config.Cache.Backend)
	}

	if r.registry != nil {
		r.writePlainln("Configured platforms: %v", r.registry.Available())
	}
	r.writePlain("Next steps:\n")
	r.writePlain("1. Add credentials to %s or a .env file\n", configPath)
	r.writePlain("2. Run 'xfer search \"your song\"' to test a platform\n")
	return nil
}
