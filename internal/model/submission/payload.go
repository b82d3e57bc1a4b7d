package submission

import (
	"time"

	"github.com/researchloop/outreach/backend/internal/model/session"
	"github.com/researchloop/outreach/backend/internal/model/survey"
)

// Consent records the accepted consent text version.
type Consent struct {
	Accepted  bool      `json:"accepted"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Survey is the fixed answer schema. Multi-valued fields are trimmed,
// deduplicated lists in selection order.
type Survey struct {
	PracticeSetting      string   `json:"practice_setting"`
	PracticeSettingOther string   `json:"practice_setting_other,omitempty"`
	YearsInPractice      string   `json:"years_in_practice"`
	Tools                []string `json:"tools"`
	ToolsOther           string   `json:"tools_other,omitempty"`
	BiggestChallenge     string   `json:"biggest_challenge"`
	SandboxRating        string   `json:"sandbox_rating,omitempty"`
	SandboxFeedback      string   `json:"sandbox_feedback,omitempty"`
	FutureContact        string   `json:"future_contact"`
	Email                string   `json:"email,omitempty"`
	Comments             string   `json:"comments,omitempty"`
}

// Answers converts the schema back into registry-keyed selections.
func (s Survey) Answers() survey.Answers {
	a := survey.Answers{}
	put := func(name string, values ...string) {
		for _, v := range values {
			if v != "" {
				a[name] = append(a[name], v)
			}
		}
	}
	put("practice_setting", s.PracticeSetting)
	put("practice_setting_other", s.PracticeSettingOther)
	put("years_in_practice", s.YearsInPractice)
	put("tools", s.Tools...)
	put("tools_other", s.ToolsOther)
	put("biggest_challenge", s.BiggestChallenge)
	put("sandbox_rating", s.SandboxRating)
	put("sandbox_feedback", s.SandboxFeedback)
	put("future_contact", s.FutureContact)
	put("email", s.Email)
	put("comments", s.Comments)
	return a
}

// Metadata describes where the submission came from.
type Metadata struct {
	UTM            session.UTM `json:"utm,omitempty"`
	Referrer       string      `json:"referrer,omitempty"`
	LandingPath    string      `json:"landing_path,omitempty"`
	SandboxVisited bool        `json:"sandbox_visited"`
	UserAgent      string      `json:"user_agent,omitempty"`
}

// Payload is the canonical body posted by the dispatcher.
type Payload struct {
	Token     string           `json:"token"`
	SessionID string           `json:"session_id"`
	Consent   Consent          `json:"consent"`
	Survey    Survey           `json:"survey"`
	Therapist *session.Subject `json:"therapist,omitempty"`
	Metadata  Metadata         `json:"metadata"`
}

// Response is the submission endpoint reply.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
