package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytfm/internal/models"
	"github.com/desertthunder/ytfm/internal/services"
	"github.com/desertthunder/ytfm/internal/shared"
)

// DefaultHistoryLimit bounds how many recent scrobbles are compared against.
const DefaultHistoryLimit = 500

// SyncOpts configures one [ScrobbleEngine.Sync].
type SyncOpts struct {
	Unattended   bool             // skip the confirmation prompt
	DryRun       bool             // stop after computing the backlog
	HistoryLimit int              // reference window (default: 500)
	Spacing      time.Duration    // gap between timestamps (default: 240s)
	Now          func() time.Time // clock for timestamps (default: time.Now)
}

// BacklogResult holds both histories and the plays missing from the reference.
type BacklogResult struct {
	Candidate []models.HistoryEntry
	Reference []models.Play
	Backlog   []models.Play
}

// SyncResult is the outcome of a sync run.
type SyncResult struct {
	CandidateCount int
	ReferenceCount int
	Backlog        []models.Play
	Outcome        *Outcome // nil for dry runs
	DryRun         bool
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Result returns the submission counters, which are zero when nothing was submitted.
func (s *SyncResult) Result() *RunResult {
	if s.Outcome != nil && s.Outcome.Result != nil {
		return s.Outcome.Result
	}
	return &RunResult{Found: len(s.Backlog)}
}

// RunRecord is what a [RunRecorder] receives at the end of a run.
type RunRecord struct {
	Opts   SyncOpts
	Result *SyncResult
	Err    error
}

// RunRecorder persists finished runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, record RunRecord) error
}

// ScrobbleEngine reconciles YouTube Music history against Last.fm and submits what is missing.
type ScrobbleEngine struct {
	candidate services.HistoryService
	reference services.ScrobbleService
	confirmer Confirmer
	recorder  RunRecorder
	logger    *log.Logger
}

// NewScrobbleEngine creates a [ScrobbleEngine]. confirmer is consulted only for attended runs.
func NewScrobbleEngine(candidate services.HistoryService, reference services.ScrobbleService, confirmer Confirmer) *ScrobbleEngine {
	return &ScrobbleEngine{
		candidate: candidate,
		reference: reference,
		confirmer: confirmer,
		logger:    log.New(io.Discard),
	}
}

// WithRecorder stores every finished run through r.
func (e *ScrobbleEngine) WithRecorder(r RunRecorder) *ScrobbleEngine {
	e.recorder = r
	return e
}

// WithLogger sets the engine logger.
func (e *ScrobbleEngine) WithLogger(l *log.Logger) *ScrobbleEngine {
	if l != nil {
		e.logger = l
	}
	return e
}

func send(progress ProgressFunc, update ProgressUpdate) {
	if progress != nil {
		progress(update)
	}
}

// Backlog fetches both histories and diffs them. Either fetch failing aborts with [shared.ErrHistoryFetch].
func (e *ScrobbleEngine) Backlog(ctx context.Context, limit int, progress ProgressFunc) (*BacklogResult, error) {
	if e.candidate == nil || e.reference == nil {
		return nil, fmt.Errorf("%w: history services not initialized", shared.ErrServiceUnavailable)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	send(progress, fetchCandidateUpdate(e.candidate.Name()))
	candidate, err := e.candidate.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrHistoryFetch, e.candidate.Name(), err)
	}
	e.logger.Info("fetched history", "service", e.candidate.Name(), "count", len(candidate))
	send(progress, fetchedCandidateUpdate(e.candidate.Name(), len(candidate)))

	send(progress, fetchReferenceUpdate(e.reference.Name(), limit))
	reference, err := e.reference.RecentTracks(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrHistoryFetch, e.reference.Name(), err)
	}
	e.logger.Info("fetched history", "service", e.reference.Name(), "count", len(reference))
	send(progress, fetchedReferenceUpdate(e.reference.Name(), len(reference)))

	backlog := Diff(reference, candidate)
	e.logger.Debug("computed backlog", "count", len(backlog))
	send(progress, compareUpdate(backlog))

	return &BacklogResult{Candidate: candidate, Reference: reference, Backlog: backlog}, nil
}

// Sync runs the whole reconciliation: fetch, diff, confirm, submit, record.
//
// Fetch failures return before anything is submitted. A fatal submission error is returned together
// with the partial result. Declining the prompt is not an error.
func (e *ScrobbleEngine) Sync(ctx context.Context, opts SyncOpts, progress ProgressFunc) (*SyncResult, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Spacing <= 0 {
		opts.Spacing = ScrobbleSpacing
	}

	result := &SyncResult{DryRun: opts.DryRun, StartedAt: opts.Now()}

	res, err := e.sync(ctx, opts, result, progress)
	result.FinishedAt = opts.Now()

	e.record(ctx, opts, result, err, progress)
	return res, err
}

func (e *ScrobbleEngine) sync(ctx context.Context, opts SyncOpts, result *SyncResult, progress ProgressFunc) (*SyncResult, error) {
	b, err := e.Backlog(ctx, opts.HistoryLimit, progress)
	if err != nil {
		return nil, err
	}

	result.CandidateCount = len(b.Candidate)
	result.ReferenceCount = len(b.Reference)
	result.Backlog = b.Backlog

	if opts.DryRun {
		send(progress, dryRunUpdate(b.Backlog))
		return result, nil
	}

	scheduler := NewScheduler(e.reference.Scrobble).
		WithSpacing(opts.Spacing).
		WithClock(opts.Now).
		WithObserver(func(i, n int, s models.Scrobble, err error) {
			if err != nil {
				e.logger.Warn("scrobble failed", "artist", s.Artist, "title", s.Title, "err", err)
			} else {
				e.logger.Debug("scrobbled", "artist", s.Artist, "title", s.Title, "timestamp", s.Timestamp)
			}
			send(progress, trackUpdate(i, n, s, err))
		})

	ctrl := NewController(opts.Unattended, e.confirmer, scheduler)
	ctrl.OnTransition(func(from, to State) {
		e.logger.Debug("run state", "from", from, "to", to)
		if u, ok := transitionUpdate(to, len(b.Backlog)); ok {
			send(progress, u)
		}
	})

	outcome, err := ctrl.Run(ctx, b.Backlog)
	result.Outcome = outcome
	if err != nil {
		return result, err
	}

	if !outcome.NothingToDo() && !outcome.Cancelled() {
		send(progress, summaryUpdate(outcome.Result))
	}

	return result, nil
}

func (e *ScrobbleEngine) record(ctx context.Context, opts SyncOpts, result *SyncResult, runErr error, progress ProgressFunc) {
	if e.recorder == nil {
		return
	}

	// the run itself may have been cancelled; recording still gets a chance
	if errors.Is(ctx.Err(), context.Canceled) {
		ctx = context.WithoutCancel(ctx)
	}

	if err := e.recorder.RecordRun(ctx, RunRecord{Opts: opts, Result: result, Err: runErr}); err != nil {
		e.logger.Warn("could not record run", "err", err)
		send(progress, recordFailedUpdate(err))
	}
}
