package survey

import (
	"fmt"
	"regexp"
	"strings"

	model "github.com/researchloop/outreach/backend/internal/model/survey"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError is the single message shown for an incomplete step.
type ValidationError struct {
	Step    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateStep returns the first violation, or nil. Groups are checked
// first, then email fields, then the remaining required fields; within each
// pass fields keep step order. Each field name is checked once even when the
// step lists it more than once.
func (r *Registry) ValidateStep(step model.Step, a model.Answers) *ValidationError {
	names := make([]string, 0, len(step.Fields))
	seen := make(map[string]struct{}, len(step.Fields))
	for _, name := range step.Fields {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if r.Required(name, a) {
			names = append(names, name)
		}
	}

	for _, pass := range validationPasses {
		for _, name := range names {
			f := r.fields[name]
			if validationPass(f) != pass {
				continue
			}
			if msg := checkField(f, a); msg != "" {
				return &ValidationError{Step: step.ID, Field: name, Message: msg}
			}
		}
	}
	return nil
}

const (
	passGroups = iota
	passEmails
	passRequired
)

var validationPasses = []int{passGroups, passEmails, passRequired}

func validationPass(f model.Field) int {
	switch {
	case f.Grouped():
		return passGroups
	case f.Type == model.Email:
		return passEmails
	default:
		return passRequired
	}
}

// ValidateAll checks every step of the sequence and returns the first
// violation found.
func (r *Registry) ValidateAll(steps []model.Step, a model.Answers) *ValidationError {
	for _, s := range steps {
		if err := r.ValidateStep(s, a); err != nil {
			return err
		}
	}
	return nil
}

func checkField(f model.Field, a model.Answers) string {
	switch {
	case f.Grouped():
		if len(a.List(f.Name)) == 0 {
			return fmt.Sprintf("Please choose an option for %q.", f.Label)
		}
	case f.Type == model.Email:
		if !emailPattern.MatchString(a.First(f.Name)) {
			return "Please enter a valid email address."
		}
	default:
		if strings.TrimSpace(a.First(f.Name)) == "" {
			return fmt.Sprintf("Please fill in %q.", f.Label)
		}
	}
	return ""
}
