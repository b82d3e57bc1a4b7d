package session

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/researchloop/outreach/backend/internal/model/record"
	model "github.com/researchloop/outreach/backend/internal/model/session"
	"github.com/researchloop/outreach/backend/internal/service/gate"
	"github.com/researchloop/outreach/backend/internal/service/records"
	"github.com/researchloop/outreach/backend/internal/service/sessions"
	"github.com/researchloop/outreach/backend/pkg/utils"
)

// SubjectFinder resolves a subject record by an equality filter.
type SubjectFinder interface {
	QueryOne(ctx context.Context, database string, f records.Filter) (record.Record, error)
}

// Handler serves the session exchange.
type Handler struct {
	sessions       *sessions.Service
	finder         SubjectFinder
	subjectsDB     string
	consentVersion string
}

// New 创建会话交换处理器. finder may be nil when the contact store is not
// configured; only preview tokens are served then.
func New(svc *sessions.Service, finder SubjectFinder, subjectsDB, consentVersion string) *Handler {
	return &Handler{
		sessions:       svc,
		finder:         finder,
		subjectsDB:     subjectsDB,
		consentVersion: consentVersion,
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session", h.handleExchange)
}

func (h *Handler) handleExchange(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		utils.RespondError(w, http.StatusBadRequest, "token is required")
		return
	}

	subject, err := h.resolveSubject(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, records.ErrNotFound):
			utils.RespondError(w, http.StatusNotFound, "invalid or expired token")
		case errors.Is(err, errStoreDisabled):
			utils.RespondError(w, http.StatusServiceUnavailable, "survey is temporarily unavailable")
		default:
			log.Printf("[session] subject lookup failed: %v", err)
			utils.RespondError(w, http.StatusBadGateway, "could not verify token")
		}
		return
	}

	preview := gate.IsPreview(token, subject)
	issued, err := h.sessions.Issue(r.Context(), token, subject, preview)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Printf("[session] issued session=%s preview=%t", issued.ID, preview)

	resp := model.ExchangeResponse{
		Success: true,
		Data: &model.ExchangeData{
			SessionID: issued.ID,
			Therapist: subject,
		},
	}
	if h.consentVersion != "" {
		resp.Consent = &model.ConsentConfig{Version: h.consentVersion}
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

var errStoreDisabled = errors.New("contact store not configured")

func (h *Handler) resolveSubject(ctx context.Context, token string) (*model.Subject, error) {
	if token == gate.PreviewToken {
		return &model.Subject{RecordID: "preview", TherapistID: "preview", Name: "Preview"}, nil
	}
	if h.finder == nil {
		return nil, errStoreDisabled
	}

	rec, err := h.finder.QueryOne(ctx, h.subjectsDB, records.Filter{
		Property: records.PropSurveyToken,
		Type:     "rich_text",
		Equals:   token,
	})
	if err != nil {
		return nil, err
	}
	return &model.Subject{
		RecordID:    rec.ID,
		TherapistID: rec.Text(records.PropTherapistID),
		Name:        rec.Text(records.PropName),
		Email:       rec.Email(records.PropEmail),
	}, nil
}
