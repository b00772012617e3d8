package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/ytfm/internal/models"
	"github.com/desertthunder/ytfm/internal/repositories"
	"github.com/desertthunder/ytfm/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

// runView is the JSON shape of a run.
type runView struct {
	ID         string  `json:"id"`
	Sequence   int     `json:"sequence"`
	Status     string  `json:"status"`
	Unattended bool    `json:"unattended"`
	DryRun     bool    `json:"dry_run"`
	Found      int     `json:"found"`
	Submitted  int     `json:"submitted"`
	Failed     int     `json:"failed"`
	Message    string  `json:"message,omitempty"`
	StartedAt  string  `json:"started_at"`
	Duration   float64 `json:"duration_seconds"`
}

func newRunView(run *models.Run) runView {
	return runView{
		ID:         run.ID(),
		Sequence:   run.Sequence(),
		Status:     string(run.Status()),
		Unattended: run.Unattended(),
		DryRun:     run.DryRun(),
		Found:      run.Found(),
		Submitted:  run.Submitted(),
		Failed:     run.Failed(),
		Message:    run.Message(),
		StartedAt:  run.StartedAt().Format(time.RFC3339),
		Duration:   run.Duration().Seconds(),
	}
}

func (r *Runner) runRepository(cmd *cli.Command) (*repositories.RunRepository, func(), error) {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewRunRepository(db), func() { db.Close() }, nil
}

// RunsList renders recent runs as a table.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.runRepository(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if status := cmd.String("status"); status != "" {
		if !models.RunStatus(status).Valid() {
			return fmt.Errorf("%w: unknown run status %q", shared.ErrInvalidArgument, status)
		}
		criteria["status"] = models.RunStatus(status)
	}

	runs, err := repo.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]runView, 0, len(runs))
		for _, run := range runs {
			views = append(views, newRunView(run))
		}
		return r.writeJSON(views, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded yet.\n")
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.output)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Started", "Status", "Found", "Scrobbled", "Failed", "Mode", "ID"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.Sequence(),
			humanize.RelTime(run.StartedAt(), r.now(), "ago", "from now"),
			run.Status(),
			run.Found(),
			run.Submitted(),
			run.Failed(),
			runMode(run),
			run.ID(),
		})
	}
	t.Render()
	return nil
}

// RunsShow prints one run and the scrobbles Last.fm rejected in it.
//
// Accepts the run ID or its sequence number.
func (r *Runner) RunsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	repo, closeDB, err := r.runRepository(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	run, err := findRun(repo, id)
	if err != nil {
		return err
	}

	failures, err := repo.Failures(run.ID())
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Run #%d", run.Sequence()))
	r.writePlain("ID: %s\n", run.ID())
	r.writePlain("Status: %s\n", run.Status())
	r.writePlain("Mode: %s\n", runMode(run))
	r.writePlain("Started: %s (%s)\n", run.StartedAt().Format("2006-01-02 15:04:05"), humanize.RelTime(run.StartedAt(), r.now(), "ago", "from now"))
	if run.FinishedAt() != nil {
		r.writePlain("Duration: %s\n", run.Duration().Round(time.Second))
	}
	r.writePlain("Tracks: %d found, %d scrobbled, %d failed\n", run.Found(), run.Submitted(), run.Failed())
	if run.Message() != "" {
		r.writePlain("Message: %s\n", run.Message())
	}

	if len(failures) == 0 {
		return nil
	}

	r.writePlainln("Rejected scrobbles:")
	t := table.NewWriter()
	t.SetOutputMirror(r.output)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Position", "Artist", "Title", "Reason"})
	for _, f := range failures {
		play := f.Play()
		t.AppendRow(table.Row{f.Position() + 1, play.Artist, play.Title, f.Reason()})
	}
	t.Render()
	return nil
}

// findRun resolves a run by UUID or sequence number.
func findRun(repo *repositories.RunRepository, id string) (*models.Run, error) {
	seq, err := strconv.Atoi(id)
	if err != nil {
		return repo.Get(id)
	}

	runs, err := repo.List(nil)
	if err != nil {
		return nil, err
	}
	for _, run := range runs {
		if run.Sequence() == seq {
			return run, nil
		}
	}
	return nil, fmt.Errorf("%w: #%d", shared.ErrRunNotFound, seq)
}

func runMode(run *models.Run) string {
	switch {
	case run.DryRun():
		return "dry run"
	case run.Unattended():
		return "unattended"
	default:
		return "attended"
	}
}
