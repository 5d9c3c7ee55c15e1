package main

import (
	"context"

	"github.com/desertthunder/xfer/internal/formatter"
	"github.com/desertthunder/xfer/internal/models"
	"github.com/desertthunder/xfer/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Match matches every track of a playlist on the destination platform without creating anything.
func (r *Runner) Match(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}

	quiet := cmd.Bool("json")
	progressCh, wait := r.followProgress(quiet)
	run, err := engine.Match(ctx, cmd.String("playlist"), progressCh)
	wait()

	if run == nil || run.SessionResult == nil {
		return err
	}
	if reportErr := r.writeReport(cmd, run); reportErr != nil {
		return reportErr
	}

	if quiet {
		data, jsonErr := formatter.ReportToJSON(newReport(run))
		if jsonErr != nil {
			return jsonErr
		}
		if writeErr := r.writePlain("%s", data); writeErr != nil {
			return writeErr
		}
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Match Complete")
	r.writeSummary(run)
	return err
}

// TransferRun matches a playlist and creates it on the destination platform.
func (r *Runner) TransferRun(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}

	sourceIDOrName := cmd.String("source")
	destName := cmd.String("dest")

	r.logger.Info("starting transfer", "source", sourceIDOrName, "from", cmd.String("from"), "to", cmd.String("to"))
	r.writePlain("Starting playlist transfer...\n")
	r.writePlain("Source: %s\n", sourceIDOrName)
	if destName != "" {
		r.writePlain("Destination: %s\n", destName)
	}
	r.writePlain("\n")

	progressCh, wait := r.followProgress(false)
	run, err := engine.Run(ctx, sourceIDOrName, destName, progressCh)
	wait()

	if run == nil || run.SessionResult == nil {
		return err
	}
	if reportErr := r.writeReport(cmd, run); reportErr != nil {
		r.logger.Error("failed to write report", "error", reportErr)
	}

	r.writePlain("\n")
	if run.DestPlaylist != nil {
		r.writePlainHeader("Transfer Complete!")
	} else {
		r.writePlainHeader("Transfer Incomplete")
	}
	r.writeSummary(run)
	return err
}

// TransferDiff compares and shows missing tracks between two playlists.
func (r *Runner) TransferDiff(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}

	sourceID := cmd.String("source-id")
	destID := cmd.String("dest-id")
	quiet := cmd.Bool("json")

	r.logger.Info("transfer diff requested", "source", sourceID, "dest", destID)

	progressCh, wait := r.followProgress(quiet)
	result, err := engine.Diff(ctx, sourceID, destID, progressCh)
	wait()
	if err != nil {
		return err
	}

	c := result.Comparison
	if quiet {
		return r.writeJSON(map[string]any{
			"source":          c.SourcePlaylist.Playlist,
			"destination":     c.DestPlaylist.Playlist,
			"matched":         c.MatchedCount,
			"missing_in_dest": nonNil(c.MissingInDest),
			"extra_in_dest":   nonNil(c.ExtraInDest),
		}, true)
	}

	r.writePlain("\n✓ Source: %s (%d tracks)\n", c.SourcePlaylist.Playlist.Name, len(c.SourcePlaylist.Tracks))
	r.writePlain("✓ Destination: %s (%d tracks)\n\n", c.DestPlaylist.Playlist.Name, len(c.DestPlaylist.Tracks))

	r.writePlainHeader("Comparison Results")
	r.writePlain("Matched: %d tracks\n", c.MatchedCount)
	r.writePlain("Missing from destination: %d tracks\n", len(c.MissingInDest))
	r.writePlain("Extra in destination: %d tracks\n\n", len(c.ExtraInDest))

	if len(c.MissingInDest) > 0 {
		r.writePlain("Missing from destination:\n")
		r.writeTrackList(c.MissingInDest)
		r.writePlain("\n")
	}

	if len(c.ExtraInDest) > 0 {
		r.writePlain("Extra in destination (not in source):\n")
		r.writeTrackList(c.ExtraInDest)
	}

	return nil
}

// followProgress prints progress updates until the returned stop function is called.
// stop closes the channel and waits for the printer to drain it.
func (r *Runner) followProgress(quiet bool) (chan tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progressCh {
			if quiet {
				continue
			}
			switch update.Phase {
			case tasks.FetchSource, tasks.FetchDest:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.Compare:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.MatchTracks:
				r.writePlain("   %s\n", update.Message)
			case tasks.CreatePlaylist:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	return progressCh, func() {
		close(progressCh)
		<-done
	}
}

func (r *Runner) writeSummary(run *tasks.TransferRunResult) {
	src := run.SourcePlaylist.Playlist
	r.writePlain("Source: %s (%d tracks, %s)\n", src.Name, run.Total, src.Platform.DisplayName())
	if run.DestPlaylist != nil {
		r.writePlain("Destination: %s (ID: %s, %s)\n", run.DestPlaylist.Name, run.DestPlaylist.ID, run.DestPlatform.DisplayName())
	} else {
		r.writePlain("Destination: %s\n", run.DestPlatform.DisplayName())
	}
	r.writePlain("Matched: %d/%d (%.1f%%)\n", run.Matched, run.Total, run.MatchPercentage())
	if run.ErrorCount > 0 {
		r.writePlain("Search errors: %d\n", run.ErrorCount)
	}
	if run.Cancelled {
		r.writePlain("Cancelled after %d of %d tracks\n", len(run.Results), run.Total)
	}
	if uncertain := len(run.Uncertain()); uncertain > 0 {
		r.writePlain("Needs review: %d (run 'xfer transfer review')\n", uncertain)
	}

	var unmatched []models.MatchResult
	for _, res := range run.Results {
		if !res.IsMatched() {
			unmatched = append(unmatched, res)
		}
	}
	if len(unmatched) == 0 {
		return
	}

	r.writePlain("\nNo match for %d tracks:\n", len(unmatched))
	for _, res := range unmatched {
		r.writePlain("  - %s", res.Source)
		if len(res.Suggestions) > 0 {
			r.writePlain(" (suggestion: %s)", res.Suggestions[0])
		}
		r.writePlain("\n")
	}
}

func (r *Runner) writeTrackList(tracks []models.Track) {
	for i, track := range tracks {
		r.writePlain("  %d. %s - %s", i+1, track.Artist, track.Title)
		if track.Album != "" {
			r.writePlain(" (%s)", track.Album)
		}
		r.writePlain("\n")
	}
}

// writeReport renders run into the file named by --report in the --format format.
func (r *Runner) writeReport(cmd *cli.Command, run *tasks.TransferRunResult) error {
	path := cmd.String("report")
	if path == "" {
		return nil
	}
	if path == "-" {
		path = ""
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	written, err := formatter.WriteReport(newReport(run), format, path)
	if err != nil {
		return err
	}
	r.logger.Info("report written", "path", written, "format", format)
	return nil
}

func newReport(run *tasks.TransferRunResult) *formatter.Report {
	report := formatter.NewReport(run.SourcePlaylist.Playlist, run.DestPlatform, run.Results, run.ErrorCount)
	report.Total = run.Total
	report.Created = run.DestPlaylist
	report.Cancelled = run.Cancelled
	return report
}

func nonNil(tracks []models.Track) []models.Track {
	if tracks == nil {
		return []models.Track{}
	}
	return tracks
}
