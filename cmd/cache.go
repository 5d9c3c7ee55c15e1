package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/shared"
	"github.com/urfave/cli/v3"
)

// expiringCache is implemented by caches whose expired entries must be removed explicitly.
type expiringCache interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// CacheClear removes cached searches, optionally for a single platform.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	var platform models.Platform
	if name := cmd.String("platform"); name != "" {
		p, err := models.ParsePlatform(name)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		platform = p
	}

	cache, err := r.searchCache(ctx)
	if err != nil {
		return err
	}
	if cache == nil {
		return fmt.Errorf("%w: search cache is disabled (cache.backend = %q)", shared.ErrInvalidConfig, r.config.Cache.Backend)
	}

	removed, err := cache.Clear(ctx, platform)
	if err != nil {
		return err
	}

	scope := "all platforms"
	if platform != "" {
		scope = platform.DisplayName()
	}
	r.logger.Info("search cache cleared", "platform", platform, "removed", removed)
	r.writePlain("✓ Removed %d cached searches (%s)\n", removed, scope)
	return nil
}

// CachePurge deletes expired searches. Redis expires entries itself, so there is nothing to do there.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.searchCache(ctx)
	if err != nil {
		return err
	}

	expiring, ok := cache.(expiringCache)
	if !ok {
		r.writePlain("Nothing to purge for cache backend %q\n", r.config.Cache.Backend)
		return nil
	}

	removed, err := expiring.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	r.writePlain("✓ Purged %d expired searches\n", removed)
	return nil
}

// CacheMigrations reports the schema version of the sqlite database and optionally rolls back the latest migration.
//
// The database is opened without applying migrations so the report reflects what is on disk.
func (r *Runner) CacheMigrations(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Database.Path
	db, err := shared.NewDatabase(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		before, err := shared.GetMigrationStatus(db)
		if err != nil {
			return err
		}
		if err := shared.RollbackMigration(db); err != nil {
			return err
		}
		r.logger.Info("migration rolled back", "path", path, "version", before.Current)
		r.writePlain("✓ Rolled back migration %d\n", before.Current)
	}

	status, err := shared.GetMigrationStatus(db)
	if err != nil {
		return err
	}
	r.writePlainHeader("Migrations")
	r.writePlain("Database: %s\n", path)
	r.writePlain("Applied: %d  Pending: %d  Current: %d\n", status.Applied, status.Pending, status.Current)
	return nil
}
