package survey

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	model "github.com/researchloop/outreach/backend/internal/model/survey"
)

// ErrBusy is returned when an activation arrives while another one is still
// in flight. The activation is dropped.
var ErrBusy = errors.New("survey transition already in progress")

// SubmitFunc sends the final answers once and returns the redirect target.
type SubmitFunc func(ctx context.Context, answers model.Answers) (string, error)

// Controller owns one wizard State and serializes mutating transitions.
type Controller struct {
	reg    *Registry
	submit SubmitFunc

	busy     atomic.Bool
	mu       sync.Mutex
	state    State
	redirect string
}

// NewController starts a wizard for a live or preview session.
func NewController(reg *Registry, preview bool, submit SubmitFunc) *Controller {
	return &Controller{reg: reg, submit: submit, state: reg.Start(preview)}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Redirect returns the success target once the survey has been submitted.
func (c *Controller) Redirect() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirect
}

// Set records selections for a field.
func (c *Controller) Set(field string, values ...string) State {
	return c.apply(Set{Field: field, Values: values})
}

// Back moves to the previous step unless a transition is in flight.
func (c *Controller) Back() (State, error) {
	if c.busy.Load() {
		return c.State(), ErrBusy
	}
	return c.apply(Back{}), nil
}

// Retry re-arms the form after a failed submission.
func (c *Controller) Retry() State {
	return c.apply(Retry{})
}

// Next validates and advances. On the last step it submits synchronously;
// concurrent calls made meanwhile return ErrBusy.
func (c *Controller) Next(ctx context.Context) (State, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return c.State(), ErrBusy
	}
	defer c.busy.Store(false)

	s := c.apply(Next{})
	if s.Phase != Submitting {
		return s, nil
	}

	redirect, err := c.submit(ctx, s.Answers)
	if err != nil {
		return c.apply(SubmitFailed{Message: err.Error()}), nil
	}

	c.mu.Lock()
	c.redirect = redirect
	c.state = c.reg.Apply(c.state, Submitted{})
	s = c.state
	c.mu.Unlock()
	return s, nil
}

func (c *Controller) apply(e Event) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.reg.Apply(c.state, e)
	return c.state
}
