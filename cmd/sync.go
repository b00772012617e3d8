package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ytfm/internal/formatter"
	"github.com/desertthunder/ytfm/internal/models"
	"github.com/desertthunder/ytfm/internal/repositories"
	"github.com/desertthunder/ytfm/internal/shared"
	"github.com/desertthunder/ytfm/internal/tasks"
	"github.com/desertthunder/ytfm/internal/ui"
	"github.com/urfave/cli/v3"
)

// Sync fetches both histories, asks for confirmation unless unattended, and scrobbles the backlog.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	lock, err := shared.AcquireLock(config.Sync.LockPath)
	if err != nil {
		return err
	}
	defer lock.Release()

	unattended := cmd.Bool("yes") || shared.IsUnattended(r.getenv)
	limit := config.Sync.HistoryLimit
	if cmd.IsSet("limit") {
		limit = cmd.Int("limit")
	}

	candidate, err := r.historyService(ctx, config)
	if err != nil {
		return err
	}
	reference, err := r.scrobbleService(ctx, config)
	if err != nil {
		return err
	}

	engine := tasks.NewScrobbleEngine(candidate, reference, r.confirmerFor()).WithLogger(r.logger)

	db, err := r.openDatabase(config)
	if err != nil {
		r.logger.Warn("run log unavailable", "error", err)
	} else {
		defer db.Close()
		engine.WithRecorder(repositories.NewRunRecorder(repositories.NewRunRepository(db)))
	}

	r.logger.Info("starting sync", "unattended", unattended, "dry_run", cmd.Bool("dry-run"), "limit", limit)

	_, err = engine.Sync(ctx, tasks.SyncOpts{
		Unattended:   unattended,
		DryRun:       cmd.Bool("dry-run"),
		HistoryLimit: limit,
		Spacing:      time.Duration(config.Sync.SpacingSeconds) * time.Second,
		Now:          r.now,
	}, r.printProgress)

	return err
}

// Diff computes the backlog and prints or exports it.
func (r *Runner) Diff(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	limit := config.Sync.HistoryLimit
	if cmd.IsSet("limit") {
		limit = cmd.Int("limit")
	}

	candidate, err := r.historyService(ctx, config)
	if err != nil {
		return err
	}
	reference, err := r.scrobbleService(ctx, config)
	if err != nil {
		return err
	}

	engine := tasks.NewScrobbleEngine(candidate, reference, nil).WithLogger(r.logger)
	result, err := engine.Backlog(ctx, limit, r.logProgress)
	if err != nil {
		return err
	}

	var hints []tasks.NearMiss
	if cmd.Bool("hints") {
		hints = tasks.NearMisses(result.Backlog, result.Reference, cmd.Float("threshold"))
		r.logger.Debug("computed near misses", "count", len(hints))
	}

	export := formatter.NewBacklogExport(result, hints, r.now())

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(export, format, path); err != nil {
			return err
		}
		r.logger.Info("backlog exported", "path", path, "format", format, "count", len(result.Backlog))
		return r.writePlain("✓ %d tracks written to %s\n", len(result.Backlog), path)
	}

	data, err := formatter.Export(export, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// openDatabase opens the run log and brings its schema up to date.
func (r *Runner) openDatabase(config *shared.Config) (*sql.DB, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	shared.ConfigureDatabase(db, config.Database)

	if _, err := shared.NewMigrator(db, shared.WithLogger(r.logger, "component", "migrations")).Up(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// printProgress renders engine updates on the console.
func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.FetchCandidate, tasks.FetchReference:
		if update.Step == 0 {
			r.writePlain("→ %s\n", update.Message)
		} else {
			r.writePlain("✓ %s\n", update.Message)
		}
	case tasks.Compare:
		r.writePlainln("%s", r.paint(update.Message, ui.Styles().Title))
		if backlog, ok := update.Data.([]models.Play); ok {
			for _, p := range backlog {
				r.writePlain("  - %s\n", p)
			}
		}
	case tasks.Confirm:
		r.writePlainln("%s", update.Message)
	case tasks.Submit:
		switch data := update.Data.(type) {
		case tasks.TrackOutcome:
			switch {
			case data.Aborted():
				r.writePlain("   %s\n", r.paint(update.Message, ui.Styles().Warn))
			case data.Err != nil:
				r.writePlain("   %s\n", r.paint(update.Message, ui.Styles().Err))
			default:
				r.writePlain("   %s\n", r.paint(update.Message, ui.Styles().OK))
			}
		case *tasks.RunResult:
			r.writePlainln("--- %s ---", update.Message)
		default:
			r.writePlainln("→ %s", update.Message)
		}
	case tasks.Record:
		r.writePlainln("%s", r.paint("⚠ "+update.Message, ui.Styles().Warn))
	}
}

// logProgress keeps stdout free for exports.
func (r *Runner) logProgress(update tasks.ProgressUpdate) {
	r.logger.Info(update.Message, "phase", update.Phase)
}

func (r *Runner) paint(s string, fn func(string) string) string {
	if !r.color {
		return s
	}
	return fn(s)
}
