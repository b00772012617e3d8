package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/ytfm/internal/shared"
)

// RunStatus is the terminal state of a sync run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusNothing   RunStatus = "nothing_to_do"
	RunStatusDryRun    RunStatus = "dry_run"
	RunStatusFailed    RunStatus = "failed"
)

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusRunning, RunStatusCompleted, RunStatusCancelled, RunStatusNothing, RunStatusDryRun, RunStatusFailed:
		return true
	}
	return false
}

// Run records one sync run: how many tracks were missing from Last.fm and what happened to them.
type Run struct {
	id         string
	sequence   int
	status     RunStatus
	unattended bool
	dryRun     bool
	found      int
	submitted  int
	failed     int
	message    string
	startedAt  time.Time
	finishedAt *time.Time
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewRun creates a running [Run] started at startedAt.
func NewRun(sequence int, unattended, dryRun bool, startedAt time.Time) *Run {
	now := time.Now()
	return &Run{
		sequence:   sequence,
		status:     RunStatusRunning,
		unattended: unattended,
		dryRun:     dryRun,
		startedAt:  startedAt,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (r *Run) ID() string { return r.id }
func (r *Run) Sequence() int { return r.sequence }
func (r *Run) Status() RunStatus { return r.status }
func (r *Run) Unattended() bool { return r.unattended }
func (r *Run) DryRun() bool { return r.dryRun }
func (r *Run) Found() int { return r.found }
func (r *Run) Submitted() int { return r.submitted }
func (r *Run) Failed() int { return r.failed }
func (r *Run) Message() string { return r.message }
func (r *Run) StartedAt() time.Time { return r.startedAt }
func (r *Run) FinishedAt() *time.Time { return r.finishedAt }
func (r *Run) CreatedAt() time.Time { return r.createdAt }
func (r *Run) UpdatedAt() time.Time { return r.updatedAt }
func (r *Run) DeletedAt() *time.Time { return r.deletedAt }

func (r *Run) SetID(id string) { r.id = id }
func (r *Run) SetSequence(sequence int) { r.sequence = sequence }
func (r *Run) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *Run) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *Run) SetDeletedAt(t *time.Time) { r.deletedAt = t }
func (r *Run) SetFinishedAt(t *time.Time) { r.finishedAt = t }
func (r *Run) SetStatus(status RunStatus) { r.status = status }
func (r *Run) SetMessage(message string) { r.message = message }
func (r *Run) SetCounts(found, submitted, failed int) {
	r.found = found
	r.submitted = submitted
	r.failed = failed
}

// Finish moves the run to its terminal status at t.
func (r *Run) Finish(status RunStatus, message string, t time.Time) {
	r.status = status
	r.message = message
	r.finishedAt = &t
	r.updatedAt = t
}

// Duration is the wall time between start and finish, or zero while running.
func (r *Run) Duration() time.Duration {
	if r.finishedAt == nil {
		return 0
	}
	return r.finishedAt.Sub(r.startedAt)
}

// Validate checks counters and status.
func (r *Run) Validate() error {
	if !r.status.Valid() {
		return fmt.Errorf("%w: unknown run status %q", shared.ErrInvalidInput, r.status)
	}
	if r.found < 0 || r.submitted < 0 || r.failed < 0 {
		return fmt.Errorf("%w: run counters must not be negative", shared.ErrInvalidInput)
	}
	if r.submitted+r.failed > r.found {
		return fmt.Errorf("%w: %d submitted and %d failed exceed %d found", shared.ErrInvalidInput, r.submitted, r.failed, r.found)
	}
	if r.startedAt.IsZero() {
		return fmt.Errorf("%w: run start time is required", shared.ErrInvalidInput)
	}
	return nil
}

// RunFailure is a submission rejected during a run.
type RunFailure struct {
	id        string
	runID     string
	position  int
	artist    string
	title     string
	reason    string
	createdAt time.Time
}

// NewRunFailure records that the play at position in the backlog was rejected with reason.
func NewRunFailure(runID string, position int, play Play, reason string) *RunFailure {
	return &RunFailure{
		runID:     runID,
		position:  position,
		artist:    play.Artist,
		title:     play.Title,
		reason:    reason,
		createdAt: time.Now(),
	}
}

func (f *RunFailure) ID() string { return f.id }
func (f *RunFailure) RunID() string { return f.runID }
func (f *RunFailure) Position() int { return f.position }
func (f *RunFailure) Play() Play { return Play{Artist: f.artist, Title: f.title} }
func (f *RunFailure) Reason() string { return f.reason }
func (f *RunFailure) CreatedAt() time.Time { return f.createdAt }
func (f *RunFailure) UpdatedAt() time.Time { return f.createdAt }

func (f *RunFailure) SetID(id string) { f.id = id }
func (f *RunFailure) SetRunID(runID string) { f.runID = runID }
func (f *RunFailure) SetCreatedAt(t time.Time) { f.createdAt = t }

// Validate requires a run, a non-negative position and a reason.
func (f *RunFailure) Validate() error {
	switch {
	case f.runID == "":
		return fmt.Errorf("%w: run id is required", shared.ErrInvalidInput)
	case f.position < 0:
		return fmt.Errorf("%w: position must not be negative", shared.ErrInvalidInput)
	case f.reason == "":
		return fmt.Errorf("%w: failure reason is required", shared.ErrInvalidInput)
	}
	return nil
}
