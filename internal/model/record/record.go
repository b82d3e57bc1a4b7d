package record

import (
	"encoding/json"
	"strings"
	"time"
)

// Kind tags the value carried by a FieldUpdate.
type Kind int

const (
	KindDate Kind = iota + 1
	KindText
)

// FieldUpdate is a single typed property write against the contact store.
// Construct it with Date or Text; the zero value is invalid.
type FieldUpdate struct {
	kind Kind
	date time.Time
	text string
}

// Date builds a date-valued update.
func Date(t time.Time) FieldUpdate {
	return FieldUpdate{kind: KindDate, date: t.UTC()}
}

// Text builds a text-valued update.
func Text(s string) FieldUpdate {
	return FieldUpdate{kind: KindText, text: s}
}

func (u FieldUpdate) Kind() Kind { return u.kind }

// DateValue returns the date payload and whether the update is date-valued.
func (u FieldUpdate) DateValue() (time.Time, bool) {
	return u.date, u.kind == KindDate
}

// TextValue returns the text payload and whether the update is text-valued.
func (u FieldUpdate) TextValue() (string, bool) {
	return u.text, u.kind == KindText
}

// Patch maps store property names to the update applied to each.
type Patch map[string]FieldUpdate

// Record is a row of the external contact store. Properties stay raw until
// read through one of the typed accessors.
type Record struct {
	ID         string                     `json:"id"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type textFragment struct {
	PlainText string `json:"plain_text"`
	Text      struct {
		Content string `json:"content"`
	} `json:"text"`
}

// Text reads a rich-text or title property as a flat string.
func (r Record) Text(name string) string {
	raw, ok := r.Properties[name]
	if !ok {
		return ""
	}
	var prop struct {
		RichText []textFragment `json:"rich_text"`
		Title    []textFragment `json:"title"`
	}
	if err := json.Unmarshal(raw, &prop); err != nil {
		return ""
	}
	fragments := prop.RichText
	if len(fragments) == 0 {
		fragments = prop.Title
	}
	var b strings.Builder
	for _, f := range fragments {
		if f.PlainText != "" {
			b.WriteString(f.PlainText)
			continue
		}
		b.WriteString(f.Text.Content)
	}
	return strings.TrimSpace(b.String())
}

// Email reads an email-typed property.
func (r Record) Email(name string) string {
	raw, ok := r.Properties[name]
	if !ok {
		return ""
	}
	var prop struct {
		Email *string `json:"email"`
	}
	if err := json.Unmarshal(raw, &prop); err != nil || prop.Email == nil {
		return ""
	}
	return strings.TrimSpace(*prop.Email)
}

// Date reads the start of a date-typed property.
func (r Record) Date(name string) (time.Time, bool) {
	raw, ok := r.Properties[name]
	if !ok {
		return time.Time{}, false
	}
	var prop struct {
		Date *struct {
			Start string `json:"start"`
		} `json:"date"`
	}
	if err := json.Unmarshal(raw, &prop); err != nil || prop.Date == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, prop.Date.Start)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
