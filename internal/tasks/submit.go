package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytfm/internal/models"
	"github.com/desertthunder/ytfm/internal/shared"
)

// ScrobbleSpacing separates consecutive submission timestamps.
const ScrobbleSpacing = 240 * time.Second

// SubmitFunc submits one scrobble. Errors wrapping [shared.ErrScrobbleRejected] are recorded
// against that play; any other error aborts the run.
type SubmitFunc func(ctx context.Context, s models.Scrobble) error

// SubmitObserver is told about every attempt before the next one starts. err is nil on success.
type SubmitObserver func(i, n int, s models.Scrobble, err error)

// Failure is a play whose submission was rejected.
type Failure struct {
	Play     models.Play
	Err      error
	Position int // index in the backlog
}

// RunResult counts what happened to a backlog.
//
// Once submission completes Submitted+Failed == Found.
type RunResult struct {
	Found     int
	Submitted int
	Failed    int
	Failures  []Failure
}

// Scheduler submits a backlog sequentially with evenly spaced, past-dated timestamps.
type Scheduler struct {
	submit  SubmitFunc
	spacing time.Duration
	now     func() time.Time
	observe SubmitObserver
}

// NewScheduler creates a [Scheduler] with [ScrobbleSpacing] and the wall clock.
func NewScheduler(submit SubmitFunc) *Scheduler {
	return &Scheduler{submit: submit, spacing: ScrobbleSpacing, now: time.Now}
}

// WithSpacing overrides the gap between timestamps. Non-positive values are ignored.
func (s *Scheduler) WithSpacing(d time.Duration) *Scheduler {
	if d > 0 {
		s.spacing = d
	}
	return s
}

// WithClock overrides the clock used to pick the anchor time.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	if now != nil {
		s.now = now
	}
	return s
}

// WithObserver registers a per-attempt callback.
func (s *Scheduler) WithObserver(fn SubmitObserver) *Scheduler {
	s.observe = fn
	return s
}

// Timestamps returns the unix seconds assigned to n plays anchored at now:
// the last play gets now and each earlier one is spacing further back.
func Timestamps(now time.Time, n int, spacing time.Duration) []int64 {
	anchor := now.UTC().Unix()
	step := int64(spacing / time.Second)

	ts := make([]int64, n)
	for i := range ts {
		ts[i] = anchor - int64(n-1-i)*step
	}
	return ts
}

// Submit sends backlog oldest first, one attempt per play.
//
// Rejected plays are recorded and skipped. Any other error stops the run and is returned with
// the partial result; plays already submitted stay submitted.
func (s *Scheduler) Submit(ctx context.Context, backlog []models.Play) (*RunResult, error) {
	n := len(backlog)
	result := &RunResult{Found: n}
	if n == 0 {
		return result, nil
	}

	stamps := Timestamps(s.now(), n, s.spacing)

	for i, play := range backlog {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		scrobble := models.NewScrobble(play, stamps[i])
		err := s.submit(ctx, scrobble)

		switch {
		case err == nil:
			result.Submitted++
		case errors.Is(err, shared.ErrScrobbleRejected):
			result.Failed++
			result.Failures = append(result.Failures, Failure{Play: play, Err: err, Position: i})
		}

		if s.observe != nil {
			s.observe(i, n, scrobble, err)
		}

		if err != nil && !errors.Is(err, shared.ErrScrobbleRejected) {
			return result, fmt.Errorf("submitting %q: %w", play.String(), err)
		}
	}

	return result, nil
}
