package survey

import (
	"testing"

	model "github.com/researchloop/outreach/backend/internal/model/survey"
)

func TestNewRegistryRejectsUnknownStepField(t *testing.T) {
	fields := []model.Field{{Name: "a", Type: model.Text}}
	steps := []model.Step{{ID: "one", Fields: []string{"a", "b"}}}
	if _, err := NewRegistry(fields, steps); err == nil {
		t.Fatal("expected error for unknown field reference")
	}
}

func TestNewRegistryRejectsDependentWithoutOther(t *testing.T) {
	fields := []model.Field{
		{Name: "choice", Type: model.Radio, Options: []string{"A", "B"}},
		{Name: "choice_other", Type: model.Text, DependsOn: "choice"},
	}
	steps := []model.Step{{ID: "one", Fields: []string{"choice"}}}
	if _, err := NewRegistry(fields, steps); err == nil {
		t.Fatal("expected error for dependent field without Other option")
	}
}

func TestStepsDropPreviewOnlyForLiveSessions(t *testing.T) {
	reg := Default()

	live := reg.Steps(false)
	for _, s := range live {
		if s.PreviewOnly {
			t.Fatalf("live sequence contains preview-only step %q", s.ID)
		}
	}
	preview := reg.Steps(true)
	if len(preview) != len(live)+1 {
		t.Fatalf("expected preview sequence to have one extra step, got %d vs %d", len(preview), len(live))
	}
}

func TestDependentOtherToggleClearsCompanion(t *testing.T) {
	reg := Default()
	answers := model.Answers{}

	answers[FieldPracticeSetting] = []string{model.OtherOption}
	answers = reg.Normalize(answers)
	if !reg.Visible(FieldPracticeSettingOther, answers) {
		t.Fatal("expected companion field to be visible while Other is selected")
	}
	if !reg.Required(FieldPracticeSettingOther, answers) {
		t.Fatal("expected companion field to be required while Other is selected")
	}

	answers[FieldPracticeSettingOther] = []string{"Community centre"}
	answers[FieldPracticeSetting] = []string{"Solo practice"}
	answers = reg.Normalize(answers)

	if reg.Visible(FieldPracticeSettingOther, answers) {
		t.Fatal("expected companion field to be hidden")
	}
	if reg.Required(FieldPracticeSettingOther, answers) {
		t.Fatal("expected companion field to be optional once hidden")
	}
	if got := answers.First(FieldPracticeSettingOther); got != "" {
		t.Fatalf("expected companion value cleared, got %q", got)
	}
}

func TestFutureContactOptOutReleasesEmail(t *testing.T) {
	reg := Default()
	answers := model.Answers{FieldEmail: {"a@b.com"}}

	if !reg.Required(FieldEmail, answers) {
		t.Fatal("expected email required by default")
	}

	answers[FieldFutureContact] = []string{"No"}
	answers = reg.Normalize(answers)
	if reg.Required(FieldEmail, answers) {
		t.Fatal("expected email optional after opting out")
	}
	if answers.First(FieldEmail) != "" {
		t.Fatalf("expected email cleared, got %q", answers.First(FieldEmail))
	}

	answers[FieldFutureContact] = []string{"Yes"}
	if !reg.Required(FieldEmail, answers) {
		t.Fatal("expected email required again after opting in")
	}
}
