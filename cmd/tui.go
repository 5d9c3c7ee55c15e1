package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/xfer/internal/shared"
	"github.com/desertthunder/xfer/internal/tasks"
	"github.com/desertthunder/xfer/internal/ui"
	"github.com/urfave/cli/v3"
)

// TransferReview launches the review TUI.
//
// With --source the playlist is matched first with progress printed to the terminal and the
// TUI opens on the results; otherwise the TUI starts by listing the source playlists.
func (r *Runner) TransferReview(ctx context.Context, cmd *cli.Command) error {
	var run *tasks.TransferRunResult
	if source := cmd.String("source"); source != "" {
		engine, err := r.engine(ctx, cmd)
		if err != nil {
			return err
		}
		progressCh, wait := r.followProgress(false)
		run, err = engine.Match(ctx, source, progressCh)
		wait()
		if run == nil || run.SessionResult == nil {
			return err
		}
		if err != nil {
			r.logger.Warn("reviewing partial results", "error", err)
		}
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, logFile, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	previous := r.logger
	r.SetLogger(fileLogger)
	defer r.SetLogger(previous)

	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}
	destName := cmd.String("dest")

	var model *ui.Model
	if run != nil {
		model = ui.NewReviewModel(ctx, engine, run, destName)
	} else {
		sourceSvc, err := r.service(ctx, cmd.String("from"))
		if err != nil {
			return err
		}
		model = ui.NewModel(ctx, sourceSvc, engine, destName)
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if reviewed := model.Run(); reviewed != nil {
		if err := r.writeReport(cmd, reviewed); err != nil {
			return err
		}
		if created := model.Created(); created != nil {
			r.writePlain("✓ Created %s (ID: %s) with %d of %d tracks\n", created.Name, created.ID, reviewed.Matched, reviewed.Total)
		}
	}
	return nil
}
