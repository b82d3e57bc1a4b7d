package submission

import (
	"time"

	"github.com/researchloop/outreach/backend/internal/model/session"
	model "github.com/researchloop/outreach/backend/internal/model/submission"
	"github.com/researchloop/outreach/backend/internal/model/survey"
	surveysvc "github.com/researchloop/outreach/backend/internal/service/survey"
)

// DefaultFutureContact applies when the participant left the choice unset.
const DefaultFutureContact = "Yes"

// Build serializes wizard answers into the canonical payload. Single-valued
// fields take their first value; multi-valued fields keep first-seen order
// without duplicates.
func Build(sess session.Session, answers survey.Answers, consentAt time.Time, meta model.Metadata) model.Payload {
	s := model.Survey{
		PracticeSetting:      answers.First(surveysvc.FieldPracticeSetting),
		PracticeSettingOther: answers.First(surveysvc.FieldPracticeSettingOther),
		YearsInPractice:      answers.First(surveysvc.FieldYearsInPractice),
		Tools:                answers.List(surveysvc.FieldTools),
		ToolsOther:           answers.First(surveysvc.FieldToolsOther),
		BiggestChallenge:     answers.First(surveysvc.FieldBiggestChallenge),
		SandboxRating:        answers.First(surveysvc.FieldSandboxRating),
		SandboxFeedback:      answers.First(surveysvc.FieldSandboxFeedback),
		FutureContact:        answers.First(surveysvc.FieldFutureContact),
		Email:                answers.First(surveysvc.FieldEmail),
		Comments:             answers.First(surveysvc.FieldComments),
	}
	if s.FutureContact == "" {
		s.FutureContact = DefaultFutureContact
	}
	if s.Email == "" {
		s.Email = sess.SubjectEmail()
	}

	if meta.UTM == nil && len(sess.UTM) > 0 {
		meta.UTM = sess.UTM
	}

	return model.Payload{
		Token:     sess.Token,
		SessionID: sess.ID,
		Consent: model.Consent{
			Accepted:  true,
			Version:   sess.ConsentVersion,
			Timestamp: consentAt.UTC(),
		},
		Survey:    s,
		Therapist: sess.Subject,
		Metadata:  meta,
	}
}
