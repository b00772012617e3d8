package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/desertthunder/ytfm/internal/models"
)

// State is a step of a sync run.
type State int

const (
	Idle State = iota
	BacklogComputed
	AutoConfirmed
	AwaitingUserConfirmation
	Submitting
	Cancelled
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case BacklogComputed:
		return "backlog_computed"
	case AutoConfirmed:
		return "auto_confirmed"
	case AwaitingUserConfirmation:
		return "awaiting_confirmation"
	case Submitting:
		return "submitting"
	case Cancelled:
		return "cancelled"
	case Done:
		return "done"
	default:
		return ""
	}
}

// ErrInvalidTransition is returned when the controller is driven out of order.
var ErrInvalidTransition = errors.New("invalid state transition")

// Confirmer asks the operator once whether backlog should be submitted.
type Confirmer interface {
	Confirm(ctx context.Context, backlog []models.Play) (bool, error)
}

// Submitter sends a backlog. [*Scheduler] is the implementation.
type Submitter interface {
	Submit(ctx context.Context, backlog []models.Play) (*RunResult, error)
}

// Outcome is what a finished run went through and produced.
type Outcome struct {
	Path    []State
	Backlog []models.Play
	Result  *RunResult
}

// Cancelled reports whether the operator declined.
func (o *Outcome) Cancelled() bool {
	return slices.Contains(o.Path, Cancelled)
}

// NothingToDo reports whether the backlog was empty.
func (o *Outcome) NothingToDo() bool {
	return len(o.Backlog) == 0
}

// Controller drives a loaded backlog to [Done], one transition per [Controller.Step].
//
// Whether the operator is asked is fixed at construction. Unattended runs never prompt.
type Controller struct {
	unattended bool
	confirmer  Confirmer
	submitter  Submitter

	state   State
	loaded  bool
	backlog []models.Play
	result  *RunResult
	path    []State

	onTransition func(from, to State)
}

// NewController builds a controller in [Idle].
func NewController(unattended bool, confirmer Confirmer, submitter Submitter) *Controller {
	return &Controller{
		unattended: unattended,
		confirmer:  confirmer,
		submitter:  submitter,
		state:      Idle,
		path:       []State{Idle},
	}
}

// OnTransition registers a callback invoked after every state change.
func (c *Controller) OnTransition(fn func(from, to State)) {
	c.onTransition = fn
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Outcome returns the run so far.
func (c *Controller) Outcome() *Outcome {
	return &Outcome{
		Path:    slices.Clone(c.path),
		Backlog: c.backlog,
		Result:  c.result,
	}
}

// Load hands the computed backlog to an idle controller. An empty backlog goes straight to [Done].
func (c *Controller) Load(backlog []models.Play) error {
	if c.state != Idle || c.loaded {
		return fmt.Errorf("%w: load in state %s", ErrInvalidTransition, c.state)
	}

	c.loaded = true
	c.backlog = backlog
	c.result = &RunResult{Found: len(backlog)}

	if len(backlog) == 0 {
		c.moveTo(Done)
		return nil
	}
	c.moveTo(BacklogComputed)
	return nil
}

// Step performs exactly one transition and returns the new state.
//
// A context cancellation while waiting for the operator leaves the state unchanged and returns the
// context error. A fatal submission error is returned after moving to [Done].
func (c *Controller) Step(ctx context.Context) (State, error) {
	switch c.state {
	case Idle:
		return c.state, fmt.Errorf("%w: no backlog loaded", ErrInvalidTransition)

	case BacklogComputed:
		if c.unattended {
			c.moveTo(AutoConfirmed)
		} else {
			c.moveTo(AwaitingUserConfirmation)
		}

	case AutoConfirmed:
		c.moveTo(Submitting)

	case AwaitingUserConfirmation:
		ok, err := c.confirm(ctx)
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return c.state, err
		}
		if ok && err == nil {
			c.moveTo(Submitting)
		} else {
			c.moveTo(Cancelled)
		}

	case Submitting:
		result, err := c.submitter.Submit(ctx, c.backlog)
		if result != nil {
			c.result = result
		}
		c.moveTo(Done)
		if err != nil {
			return c.state, err
		}

	case Cancelled:
		c.moveTo(Done)

	case Done:
		return c.state, fmt.Errorf("%w: run already done", ErrInvalidTransition)
	}

	return c.state, nil
}

// Run loads backlog and steps until [Done].
func (c *Controller) Run(ctx context.Context, backlog []models.Play) (*Outcome, error) {
	if err := c.Load(backlog); err != nil {
		return nil, err
	}

	for c.state != Done {
		if _, err := c.Step(ctx); err != nil {
			return c.Outcome(), err
		}
	}

	return c.Outcome(), nil
}

func (c *Controller) confirm(ctx context.Context) (bool, error) {
	if c.confirmer == nil {
		return false, nil
	}
	return c.confirmer.Confirm(ctx, c.backlog)
}

func (c *Controller) moveTo(next State) {
	prev := c.state
	c.state = next
	c.path = append(c.path, next)
	if c.onTransition != nil {
		c.onTransition(prev, next)
	}
}
