package survey

import (
	"fmt"
	"slices"

	model "github.com/researchloop/outreach/backend/internal/model/survey"
)

// Registry is the field registry keyed by logical field name plus the
// ordered step list that references it.
type Registry struct {
	fields map[string]model.Field
	order  []string
	steps  []model.Step
}

// NewRegistry checks that steps only reference known fields and that every
// dependent field hangs off a choice field offering OtherOption.
func NewRegistry(fields []model.Field, steps []model.Step) (*Registry, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("survey needs at least one step")
	}

	r := &Registry{fields: make(map[string]model.Field, len(fields))}
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field with label %q has no name", f.Label)
		}
		if _, dup := r.fields[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		r.fields[f.Name] = f
		r.order = append(r.order, f.Name)
	}

	for _, f := range fields {
		if f.DependsOn != "" {
			parent, ok := r.fields[f.DependsOn]
			if !ok {
				return nil, fmt.Errorf("field %q depends on unknown field %q", f.Name, f.DependsOn)
			}
			if !parent.Grouped() || !slices.Contains(parent.Options, model.OtherOption) {
				return nil, fmt.Errorf("field %q depends on %q which has no %q option", f.Name, f.DependsOn, model.OtherOption)
			}
		}
		if f.RequiredUnless != nil {
			if _, ok := r.fields[f.RequiredUnless.Field]; !ok {
				return nil, fmt.Errorf("field %q references unknown field %q", f.Name, f.RequiredUnless.Field)
			}
		}
	}

	seen := make(map[string]struct{}, len(steps))
	for _, s := range steps {
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("duplicate step %q", s.ID)
		}
		seen[s.ID] = struct{}{}
		for _, name := range s.Fields {
			if _, ok := r.fields[name]; !ok {
				return nil, fmt.Errorf("step %q references unknown field %q", s.ID, name)
			}
		}
	}
	r.steps = append([]model.Step(nil), steps...)
	return r, nil
}

// Field looks up a field by name.
func (r *Registry) Field(name string) (model.Field, bool) {
	f, ok := r.fields[name]
	return f, ok
}

// Fields returns every field in declaration order.
func (r *Registry) Fields() []model.Field {
	out := make([]model.Field, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.fields[name])
	}
	return out
}

// Steps returns the step sequence for a session. Preview-only steps are
// removed entirely unless preview is set.
func (r *Registry) Steps(preview bool) []model.Step {
	out := make([]model.Step, 0, len(r.steps))
	for _, s := range r.steps {
		if s.PreviewOnly && !preview {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Visible reports whether a field is currently shown.
func (r *Registry) Visible(name string, a model.Answers) bool {
	f, ok := r.fields[name]
	if !ok {
		return false
	}
	if f.DependsOn == "" {
		return true
	}
	return a.Has(f.DependsOn, model.OtherOption)
}

// Required reports whether a field must be filled given the current answers.
func (r *Registry) Required(name string, a model.Answers) bool {
	f, ok := r.fields[name]
	if !ok || !r.Visible(name, a) {
		return false
	}
	if f.DependsOn != "" {
		return true
	}
	if f.RequiredUnless != nil && holds(*f.RequiredUnless, a) {
		return false
	}
	return f.Required
}

// Normalize clears fields that are hidden or released by a cross-field
// rule. The input is not modified.
func (r *Registry) Normalize(a model.Answers) model.Answers {
	out := a.Clone()
	for _, name := range r.order {
		f := r.fields[name]
		if !r.Visible(name, out) {
			delete(out, name)
			continue
		}
		if f.RequiredUnless != nil && holds(*f.RequiredUnless, out) {
			delete(out, name)
		}
	}
	return out
}

func holds(c model.Condition, a model.Answers) bool {
	has := a.Has(c.Field, c.Value)
	if c.Negate {
		return !has
	}
	return has
}
