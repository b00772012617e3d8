package tasks

import (
	"errors"
	"fmt"

	"github.com/desertthunder/ytfm/internal/models"
	"github.com/desertthunder/ytfm/internal/shared"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// ProgressFunc receives updates synchronously, in order.
type ProgressFunc func(ProgressUpdate)

// TrackOutcome is the Data of a [Submit] update for one track. Err is nil on success.
type TrackOutcome struct {
	Scrobble models.Scrobble
	Err      error
}

// Aborted reports whether Err stopped the run rather than rejecting this one track.
func (t TrackOutcome) Aborted() bool {
	return t.Err != nil && !errors.Is(t.Err, shared.ErrScrobbleRejected)
}

// Operation phase enumeration
type Phase int

const (
	FetchCandidate Phase = iota
	FetchReference
	Compare
	Confirm
	Submit
	Record
)

func (p Phase) String() string {
	switch p {
	case FetchCandidate:
		return "fetch_candidate"
	case FetchReference:
		return "fetch_reference"
	case Compare:
		return "compare"
	case Confirm:
		return "confirm"
	case Submit:
		return "submit"
	case Record:
		return "record"
	default:
		return ""
	}
}

func fetchCandidateUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCandidate,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching history from %s...", name),
	}
}

func fetchedCandidateUpdate(name string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCandidate,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Retrieved %d tracks from %s", count, name),
		Data:    count,
	}
}

func fetchReferenceUpdate(name string, limit int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchReference,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching up to %d recent scrobbles from %s...", limit, name),
	}
}

func fetchedReferenceUpdate(name string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchReference,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Retrieved %d scrobbles from %s", count, name),
		Data:    count,
	}
}

func compareUpdate(backlog []models.Play) ProgressUpdate {
	msg := fmt.Sprintf("Found %d new tracks to scrobble", len(backlog))
	if len(backlog) == 0 {
		msg = "Nothing to do: history is already in sync"
	}
	return ProgressUpdate{
		Phase:   Compare,
		Step:    1,
		Total:   1,
		Message: msg,
		Data:    backlog,
	}
}

func dryRunUpdate(backlog []models.Play) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Confirm,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Dry run: %d tracks would be scrobbled", len(backlog)),
		Data:    backlog,
	}
}

func transitionUpdate(to State, total int) (ProgressUpdate, bool) {
	switch to {
	case AutoConfirmed:
		return ProgressUpdate{Phase: Confirm, Step: 1, Total: 1, Message: "Unattended run: submitting without confirmation"}, true
	case AwaitingUserConfirmation:
		return ProgressUpdate{Phase: Confirm, Step: 0, Total: 1, Message: "Waiting for confirmation..."}, true
	case Cancelled:
		return ProgressUpdate{Phase: Confirm, Step: 1, Total: 1, Message: "Cancelled: nothing was scrobbled"}, true
	case Submitting:
		return ProgressUpdate{Phase: Submit, Step: 0, Total: total, Message: fmt.Sprintf("Scrobbling %d tracks...", total)}, true
	}
	return ProgressUpdate{}, false
}

func trackUpdate(i, n int, s models.Scrobble, err error) ProgressUpdate {
	outcome := TrackOutcome{Scrobble: s, Err: err}

	var msg string
	switch {
	case err == nil:
		msg = fmt.Sprintf("[%d/%d] ✔ %s - %s", i+1, n, s.Artist, s.Title)
	case outcome.Aborted():
		msg = fmt.Sprintf("[%d/%d] ⚠ stopped at %s - %s: %v", i+1, n, s.Artist, s.Title, err)
	default:
		msg = fmt.Sprintf("[%d/%d] ✖ %s - %s: %v", i+1, n, s.Artist, s.Title, err)
	}
	return ProgressUpdate{
		Phase:   Submit,
		Step:    i + 1,
		Total:   n,
		Message: msg,
		Data:    outcome,
	}
}

func summaryUpdate(result *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Submit,
		Step:    result.Found,
		Total:   result.Found,
		Message: fmt.Sprintf("Done: %d of %d tracks scrobbled, %d failed", result.Submitted, result.Found, result.Failed),
		Data:    result,
	}
}

func recordFailedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Record,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Could not record run: %v", err),
	}
}
