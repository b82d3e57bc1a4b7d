package survey

// FieldType describes how a field collects input.
type FieldType string

const (
	Radio    FieldType = "radio"
	Checkbox FieldType = "checkbox"
	Email    FieldType = "email"
	Text     FieldType = "text"
	TextArea FieldType = "textarea"
)

// OtherOption is the choice that reveals a dependent companion field.
const OtherOption = "Other"

// Condition holds when the named field has Value among its selections.
// Negate flips the result.
type Condition struct {
	Field  string
	Value  string
	Negate bool
}

// Field is one logical entry in the field registry.
type Field struct {
	Name     string
	Label    string
	Type     FieldType
	Options  []string
	Required bool
	// DependsOn names the governing choice field; the field is shown only
	// while that field has OtherOption selected.
	DependsOn string
	// RequiredUnless drops the required flag (and clears the value) while
	// the condition holds.
	RequiredUnless *Condition
}

// Grouped reports whether the field is a radio/checkbox group.
func (f Field) Grouped() bool {
	return f.Type == Radio || f.Type == Checkbox
}

// Step is an ordered page of the survey. Fields may repeat a name when the
// same group is rendered more than once.
type Step struct {
	ID          string
	Title       string
	Fields      []string
	PreviewOnly bool
}
