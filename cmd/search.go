package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/xfer/internal/formatter"
	"github.com/desertthunder/xfer/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search searches one platform for tracks matching a free-text query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query is required", shared.ErrMissingArgument)
	}

	svc, err := r.service(ctx, cmd.String("platform"))
	if err != nil {
		return err
	}

	r.logger.Info("searching", "platform", svc.Platform(), "query", query)

	searcher := r.searcher(ctx, svc, cmd.Bool("no-cache"))
	tracks, err := searcher.SearchTracks(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrSearchFailed, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	if len(tracks) == 0 {
		r.writePlain("No results on %s for %q\n", svc.Name(), query)
		return nil
	}

	r.writePlain("Results on %s:\n\n", svc.Name())
	for i, track := range tracks {
		r.writePlain("%2d. %s [%s]\n", i+1, track, formatter.FormatDuration(track.Duration))
		if track.Album != "" {
			r.writePlain("    Album: %s\n", track.Album)
		}
		r.writePlain("    ID: %s\n", track.ID)
	}
	return nil
}

// Playlists lists the playlists of the authenticated user on one platform.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service(ctx, cmd.String("platform"))
	if err != nil {
		return err
	}

	playlists, err := svc.GetPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("failed to list %s playlists: %w", svc.Name(), err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s Playlists (%d)", svc.Name(), len(playlists)))
	for _, pl := range playlists {
		r.writePlain("%s  %s (%d tracks)\n", pl.ID, pl.Name, pl.TrackCount)
	}
	return nil
}
