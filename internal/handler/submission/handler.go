package submission

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/researchloop/outreach/backend/internal/model/record"
	model "github.com/researchloop/outreach/backend/internal/model/submission"
	surveymodel "github.com/researchloop/outreach/backend/internal/model/survey"
	"github.com/researchloop/outreach/backend/internal/service/records"
	"github.com/researchloop/outreach/backend/internal/service/sessions"
	"github.com/researchloop/outreach/backend/internal/service/survey"
	"github.com/researchloop/outreach/backend/pkg/utils"
)

const maxPayloadBytes = 64 << 10

// Property names of the responses database.
const (
	propSessionID      = "Session ID"
	propTherapistID    = "Therapist ID"
	propSubjectEmail   = "Subject Email"
	propSubmittedAt    = "Submitted At"
	propConsentVersion = "Consent Version"
	propConsentAt      = "Consent At"
	propReferrer       = "Referrer"
	propLandingPath    = "Landing Path"
	propSandboxVisited = "Sandbox Visited"
)

// campaignProps maps the accepted campaign parameters to response
// properties. Any other key is ignored.
var campaignProps = map[string]string{
	"utm_source":   "UTM Source",
	"utm_medium":   "UTM Medium",
	"utm_campaign": "UTM Campaign",
	"utm_term":     "UTM Term",
	"utm_content":  "UTM Content",
}

// ResponseStore persists accepted submissions.
type ResponseStore interface {
	Create(ctx context.Context, database string, p record.Patch) (string, error)
	Patch(ctx context.Context, id string, p record.Patch) error
}

// Handler accepts survey submissions.
type Handler struct {
	registry    *survey.Registry
	sessions    *sessions.Service
	store       ResponseStore
	responsesDB string
	now         func() time.Time
}

// New 创建问卷提交处理器
func New(registry *survey.Registry, svc *sessions.Service, store ResponseStore, responsesDB string) *Handler {
	return &Handler{
		registry:    registry,
		sessions:    svc,
		store:       store,
		responsesDB: responsesDB,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes 注册提交相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/submit", h.handleSubmit)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload model.Payload
	if err := utils.DecodeJSON(w, r, maxPayloadBytes, &payload); err != nil {
		if errors.Is(err, utils.ErrBodyTooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Token) == "" || strings.TrimSpace(payload.SessionID) == "" {
		utils.RespondError(w, http.StatusBadRequest, "token and session_id are required")
		return
	}
	if !payload.Consent.Accepted {
		utils.RespondError(w, http.StatusBadRequest, "consent is required")
		return
	}

	ctx := r.Context()
	issued, err := h.sessions.Lookup(ctx, payload.SessionID, payload.Token)
	if err != nil {
		switch {
		case errors.Is(err, sessions.ErrTokenMismatch):
			utils.RespondError(w, http.StatusForbidden, err.Error())
		default:
			utils.RespondError(w, http.StatusNotFound, err.Error())
		}
		return
	}

	answers := h.registry.Normalize(payload.Survey.Answers())
	if verr := h.registry.ValidateAll(h.registry.Steps(issued.Preview), answers); verr != nil {
		utils.RespondError(w, http.StatusBadRequest, verr.Message)
		return
	}

	if issued.Preview {
		h.sessions.Complete(ctx, issued.ID)
		log.Printf("[submit] preview submission accepted session=%s", issued.ID)
		utils.RespondJSON(w, http.StatusOK, model.Response{Success: true})
		return
	}

	if h.store == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "survey storage is not configured")
		return
	}

	submittedAt := h.now()
	id, err := h.store.Create(ctx, h.responsesDB, h.responsePatch(payload, issued, answers, submittedAt))
	if err != nil {
		log.Printf("[submit] failed to store response session=%s: %v", issued.ID, err)
		utils.RespondError(w, http.StatusBadGateway, "failed to record submission")
		return
	}
	log.Printf("[submit] stored response %s session=%s", id, issued.ID)

	if issued.Subject != nil && issued.Subject.RecordID != "" {
		err := h.store.Patch(ctx, issued.Subject.RecordID, record.Patch{
			records.PropSurveyCompleted: record.Date(submittedAt),
		})
		if err != nil {
			log.Printf("[submit] failed to mark subject %s completed: %v", issued.Subject.RecordID, err)
		}
	}

	h.sessions.Complete(ctx, issued.ID)
	utils.RespondJSON(w, http.StatusOK, model.Response{Success: true})
}

func (h *Handler) responsePatch(p model.Payload, issued sessions.Issued, answers surveymodel.Answers, at time.Time) record.Patch {
	patch := record.Patch{
		propSessionID:      record.Text(issued.ID),
		propSubmittedAt:    record.Date(at),
		propConsentVersion: record.Text(p.Consent.Version),
	}
	if !p.Consent.Timestamp.IsZero() {
		patch[propConsentAt] = record.Date(p.Consent.Timestamp)
	}
	if s := issued.Subject; s != nil {
		patch[propTherapistID] = record.Text(s.TherapistID)
		patch[propSubjectEmail] = record.Text(s.Email)
	}
	if p.Metadata.Referrer != "" {
		patch[propReferrer] = record.Text(p.Metadata.Referrer)
	}
	if p.Metadata.LandingPath != "" {
		patch[propLandingPath] = record.Text(p.Metadata.LandingPath)
	}
	if p.Metadata.SandboxVisited {
		patch[propSandboxVisited] = record.Text("yes")
	}
	for key, value := range p.Metadata.UTM {
		prop, ok := campaignProps[key]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		patch[prop] = record.Text(strings.TrimSpace(value))
	}

	for _, f := range h.registry.Fields() {
		if values := answers.List(f.Name); len(values) > 0 {
			patch[f.Name] = record.Text(strings.Join(values, ", "))
		}
	}
	return patch
}
