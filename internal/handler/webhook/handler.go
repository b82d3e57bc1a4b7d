package webhook

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/researchloop/outreach/backend/internal/service/engagement"
	"github.com/researchloop/outreach/backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Handler exposes the engagement receiver over HTTP.
type Handler struct {
	receiver *engagement.Receiver
}

// New 创建 webhook 处理器
func New(receiver *engagement.Receiver) *Handler {
	return &Handler{receiver: receiver}
}

// RegisterRoutes mounts the receiver for every method so the receiver
// itself answers wrong-method deliveries.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.HandleFunc("/webhooks/email", h.handleDelivery)
}

func (h *Handler) handleDelivery(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("github.com/researchloop/outreach/backend/internal/handler/webhook").Start(r.Context(), "webhook.delivery")
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond(w, http.StatusRequestEntityTooLarge, map[string]any{"received": false, "error": "payload too large"})
			return
		}
		respond(w, http.StatusBadRequest, map[string]any{"received": false, "error": "unreadable body"})
		return
	}

	res, err := h.receiver.Handle(ctx, engagement.Delivery{
		Method:    r.Method,
		Signature: r.Header.Get(engagement.SignatureHeader),
		Body:      body,
	})
	if err != nil {
		var rej *engagement.RejectError
		if !errors.As(err, &rej) {
			log.Printf("[webhook] unexpected error: %v", err)
			respond(w, http.StatusInternalServerError, map[string]any{"received": false, "error": "internal error"})
			return
		}
		span.SetAttributes(attribute.Int("webhook.status", rej.Status))
		if rej.Status == http.StatusMethodNotAllowed {
			w.Header().Set("Allow", http.MethodPost)
		}
		respond(w, rej.Status, map[string]any{"received": false, "error": rej.Error()})
		return
	}

	span.SetAttributes(attribute.Bool("webhook.handled", res.Handled))
	if !res.Handled {
		respond(w, http.StatusOK, map[string]any{"received": true, "status": "unhandled"})
		return
	}
	span.SetAttributes(attribute.String("webhook.event", string(res.Type)))
	respond(w, http.StatusOK, map[string]any{"received": true, "status": "handled", "event": res.Type})
}

func respond(w http.ResponseWriter, status int, payload map[string]any) {
	utils.RespondJSON(w, status, payload)
}
