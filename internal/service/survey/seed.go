package survey

import model "github.com/researchloop/outreach/backend/internal/model/survey"

// Field names of the research survey. The submission payload schema is
// keyed by these.
const (
	FieldPracticeSetting      = "practice_setting"
	FieldPracticeSettingOther = "practice_setting_other"
	FieldYearsInPractice      = "years_in_practice"
	FieldTools                = "tools"
	FieldToolsOther           = "tools_other"
	FieldBiggestChallenge     = "biggest_challenge"
	FieldSandboxRating        = "sandbox_rating"
	FieldSandboxFeedback      = "sandbox_feedback"
	FieldFutureContact        = "future_contact"
	FieldEmail                = "email"
	FieldComments             = "comments"
)

// SeedFields is the field registry for the therapist research survey.
func SeedFields() []model.Field {
	return []model.Field{
		{
			Name:     FieldPracticeSetting,
			Label:    "Practice setting",
			Type:     model.Radio,
			Options:  []string{"Solo practice", "Group practice", "Hospital or clinic", model.OtherOption},
			Required: true,
		},
		{
			Name:      FieldPracticeSettingOther,
			Label:     "Describe your practice setting",
			Type:      model.Text,
			DependsOn: FieldPracticeSetting,
		},
		{
			Name:     FieldYearsInPractice,
			Label:    "Years in practice",
			Type:     model.Radio,
			Options:  []string{"0-2", "3-5", "6-10", "10+"},
			Required: true,
		},
		{
			Name:     FieldTools,
			Label:    "Tools you use today",
			Type:     model.Checkbox,
			Options:  []string{"EHR", "Spreadsheets", "Paper notes", "Practice management app", model.OtherOption},
			Required: true,
		},
		{
			Name:      FieldToolsOther,
			Label:     "Other tools",
			Type:      model.Text,
			DependsOn: FieldTools,
		},
		{
			Name:     FieldBiggestChallenge,
			Label:    "Biggest challenge in your week",
			Type:     model.TextArea,
			Required: true,
		},
		{
			Name:     FieldSandboxRating,
			Label:    "How useful was the sandbox?",
			Type:     model.Radio,
			Options:  []string{"1", "2", "3", "4", "5"},
			Required: true,
		},
		{
			Name:  FieldSandboxFeedback,
			Label: "Sandbox feedback",
			Type:  model.TextArea,
		},
		{
			Name:    FieldFutureContact,
			Label:   "May we contact you about future research?",
			Type:    model.Radio,
			Options: []string{"Yes", "No"},
		},
		{
			Name:           FieldEmail,
			Label:          "Email",
			Type:           model.Email,
			Required:       true,
			RequiredUnless: &model.Condition{Field: FieldFutureContact, Value: "No"},
		},
		{
			Name:  FieldComments,
			Label: "Anything else?",
			Type:  model.TextArea,
		},
	}
}

// SeedSteps is the step order. The sandbox step only shows in preview
// sessions.
func SeedSteps() []model.Step {
	return []model.Step{
		{
			ID:     "practice",
			Title:  "Your practice",
			Fields: []string{FieldPracticeSetting, FieldPracticeSettingOther, FieldYearsInPractice},
		},
		{
			ID:     "workflow",
			Title:  "Your workflow",
			Fields: []string{FieldTools, FieldToolsOther, FieldBiggestChallenge},
		},
		{
			ID:          "sandbox",
			Title:       "Sandbox preview",
			Fields:      []string{FieldSandboxRating, FieldSandboxFeedback},
			PreviewOnly: true,
		},
		{
			ID:     "contact",
			Title:  "Staying in touch",
			Fields: []string{FieldFutureContact, FieldEmail, FieldComments},
		},
	}
}

// Default builds the registry from the seed definitions.
func Default() *Registry {
	r, err := NewRegistry(SeedFields(), SeedSteps())
	if err != nil {
		panic(err)
	}
	return r
}
