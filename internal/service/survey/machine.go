package survey

import (
	"fmt"

	model "github.com/researchloop/outreach/backend/internal/model/survey"
)

// Phase is the coarse wizard state.
type Phase int

const (
	Editing Phase = iota
	Submitting
	Succeeded
	Failed
	Disabled
)

func (p Phase) String() string {
	switch p {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Disabled:
		return "disabled"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the whole wizard. Transitions never mutate a State in place.
type State struct {
	Steps   []model.Step
	Index   int
	Phase   Phase
	Message string
	Answers model.Answers
	Preview bool
}

// Current returns the active step.
func (s State) Current() model.Step {
	return s.Steps[s.Index]
}

// Last reports whether the active step is the final one.
func (s State) Last() bool {
	return s.Index == len(s.Steps)-1
}

// Event is an input to Apply.
type Event interface {
	event()
}

type (
	// Next validates the active step and advances or starts submitting.
	Next struct{}
	// Back moves to the previous step.
	Back struct{}
	// Set replaces the selections of one field.
	Set struct {
		Field  string
		Values []string
	}
	// Submitted reports a successful submission.
	Submitted struct{}
	// SubmitFailed reports a failed submission.
	SubmitFailed struct{ Message string }
	// Retry re-arms the form after a failed submission.
	Retry struct{}
)

func (Next) event()         {}
func (Back) event()         {}
func (Set) event()          {}
func (Submitted) event()    {}
func (SubmitFailed) event() {}
func (Retry) event()        {}

// Start returns the initial state for a session.
func (r *Registry) Start(preview bool) State {
	return State{
		Steps:   r.Steps(preview),
		Phase:   Editing,
		Answers: model.Answers{},
		Preview: preview,
	}
}

// DisabledState is the terminal state of a survey whose session could not
// be established.
func DisabledState(reason string) State {
	return State{Phase: Disabled, Message: reason}
}

// Apply is the transition function. Events that are not valid in the
// current phase leave the state unchanged.
func (r *Registry) Apply(s State, e Event) State {
	switch ev := e.(type) {
	case Set:
		if s.Phase != Editing {
			return s
		}
		next := s
		answers := s.Answers.Clone()
		answers[ev.Field] = append([]string(nil), ev.Values...)
		next.Answers = r.Normalize(answers)
		return next

	case Next:
		if s.Phase != Editing {
			return s
		}
		next := s
		if verr := r.ValidateStep(s.Current(), s.Answers); verr != nil {
			next.Message = verr.Message
			return next
		}
		next.Message = ""
		if s.Last() {
			next.Phase = Submitting
			return next
		}
		next.Index++
		return next

	case Back:
		if s.Phase != Editing || s.Index == 0 {
			return s
		}
		next := s
		next.Index--
		next.Message = ""
		return next

	case Submitted:
		if s.Phase != Submitting {
			return s
		}
		next := s
		next.Phase = Succeeded
		next.Message = ""
		return next

	case SubmitFailed:
		if s.Phase != Submitting {
			return s
		}
		next := s
		next.Phase = Failed
		next.Message = ev.Message
		return next

	case Retry:
		if s.Phase != Failed {
			return s
		}
		next := s
		next.Phase = Editing
		next.Message = ""
		return next
	}
	return s
}

// Progress returns the completion percentage and label for the active step.
// Preview-only steps are already absent from non-preview sequences.
func Progress(s State) (int, string) {
	total := len(s.Steps)
	if total == 0 {
		return 0, ""
	}
	current := s.Index + 1
	return current * 100 / total, fmt.Sprintf("Step %d of %d", current, total)
}
