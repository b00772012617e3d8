package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytfm/internal/models"
	"github.com/desertthunder/ytfm/internal/tasks"
)

// RunRecorder stores finished sync runs through a [RunRepository].
//
// Implements [tasks.RunRecorder].
type RunRecorder struct {
	repo *RunRepository
}

// NewRunRecorder creates a [RunRecorder].
func NewRunRecorder(repo *RunRepository) *RunRecorder {
	return &RunRecorder{repo: repo}
}

// RecordRun persists the run and its rejected submissions.
func (r *RunRecorder) RecordRun(ctx context.Context, record tasks.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := record.Result
	if res == nil {
		return fmt.Errorf("no result to record")
	}

	run := models.NewRun(0, record.Opts.Unattended, record.Opts.DryRun, res.StartedAt)
	counts := res.Result()
	run.SetCounts(counts.Found, counts.Submitted, counts.Failed)

	status, message := RunStatusOf(record)
	run.Finish(status, message, res.FinishedAt)

	failures := make([]*models.RunFailure, 0, len(counts.Failures))
	for _, f := range counts.Failures {
		failures = append(failures, models.NewRunFailure("", f.Position, f.Play, f.Err.Error()))
	}

	return r.repo.CreateWithFailures(run, failures)
}

// RunStatusOf classifies a finished run.
func RunStatusOf(record tasks.RunRecord) (models.RunStatus, string) {
	res := record.Result

	switch {
	case record.Err != nil:
		return models.RunStatusFailed, record.Err.Error()
	case res.DryRun:
		return models.RunStatusDryRun, ""
	case res.Outcome == nil || res.Outcome.NothingToDo():
		return models.RunStatusNothing, ""
	case res.Outcome.Cancelled():
		return models.RunStatusCancelled, ""
	default:
		return models.RunStatusCompleted, ""
	}
}
