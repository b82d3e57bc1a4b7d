package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/researchloop/outreach/backend/internal/handler/feed"
	"github.com/researchloop/outreach/backend/internal/handler/session"
	"github.com/researchloop/outreach/backend/internal/handler/submission"
	"github.com/researchloop/outreach/backend/internal/handler/webhook"
	middlewarePkg "github.com/researchloop/outreach/backend/internal/middleware"
	"github.com/researchloop/outreach/backend/internal/service/engagement"
	feedService "github.com/researchloop/outreach/backend/internal/service/feed"
	"github.com/researchloop/outreach/backend/internal/service/records"
	"github.com/researchloop/outreach/backend/internal/service/sessions"
	"github.com/researchloop/outreach/backend/internal/service/survey"
	"github.com/researchloop/outreach/backend/pkg/utils"
)

// Services bundles what the HTTP layer depends on. Store may be nil when the
// contact store is not configured.
type Services struct {
	Receiver       *engagement.Receiver
	Hub            *feedService.Hub
	Sessions       *sessions.Service
	Registry       *survey.Registry
	Store          *records.Client
	SubjectsDB     string
	ResponsesDB    string
	ConsentVersion string
	Feed           feed.Options
}

// NewRouter wires HTTP routes to core services.
func NewRouter(svc Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// typed nils must not leak into the handler interfaces
	var finder session.SubjectFinder
	var responses submission.ResponseStore
	if svc.Store != nil {
		finder = svc.Store
		responses = svc.Store
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middlewarePkg.CORS)

		session.New(svc.Sessions, finder, svc.SubjectsDB, svc.ConsentVersion).RegisterRoutes(api)
		submission.New(svc.Registry, svc.Sessions, responses, svc.ResponsesDB).RegisterRoutes(api)
		feed.New(svc.Hub, svc.Feed).RegisterRoutes(api)
	})

	// the mail service never sends preflights, so CORS stays off this route
	webhook.New(svc.Receiver).RegisterRoutes(r)

	return r
}
