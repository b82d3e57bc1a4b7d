package engagement

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	model "github.com/researchloop/outreach/backend/internal/model/engagement"
	"github.com/researchloop/outreach/backend/internal/model/record"
)

// Updater applies a patch to the subject with the given email. It reports
// whether the patch landed; failures are its own to log.
type Updater interface {
	Apply(ctx context.Context, email string, p record.Patch) bool
}

// Publisher receives every classified event.
type Publisher interface {
	Publish(n model.Notification)
}

// Delivery is one inbound webhook request.
type Delivery struct {
	Method    string
	Signature string
	Body      []byte
}

// Result describes an accepted delivery.
type Result struct {
	Handled bool
	Type    model.Type
	Applied bool
}

// RejectError is a delivery the receiver refuses. Status is the HTTP code
// returned to the sender.
type RejectError struct {
	Status int
	Err    error
}

func (e *RejectError) Error() string { return e.Err.Error() }

func (e *RejectError) Unwrap() error { return e.Err }

// ErrMethod rejects anything but POST.
var ErrMethod = errors.New("webhook requires POST")

// Receiver runs Verify → Parse → Classify → Dispatch for each delivery. It
// keeps no per-request state.
type Receiver struct {
	secret    string
	updater   Updater
	publisher Publisher
	now       func() time.Time
}

// NewReceiver builds a receiver. updater and publisher may be nil.
func NewReceiver(secret string, updater Updater, publisher Publisher) *Receiver {
	return &Receiver{
		secret:    secret,
		updater:   updater,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes one delivery. A nil error means the sender gets an
// acknowledgment, whether or not the store was updated.
func (r *Receiver) Handle(ctx context.Context, d Delivery) (Result, error) {
	if d.Method != http.MethodPost {
		return Result{}, &RejectError{Status: http.StatusMethodNotAllowed, Err: ErrMethod}
	}
	if err := Verify(r.secret, d.Signature, d.Body); err != nil {
		if errors.Is(err, ErrSecretMissing) {
			log.Printf("[webhook] rejecting delivery: %v", err)
			return Result{}, &RejectError{Status: http.StatusInternalServerError, Err: err}
		}
		return Result{}, &RejectError{Status: http.StatusUnauthorized, Err: err}
	}

	raw, err := Parse(d.Body)
	if err != nil {
		return Result{}, &RejectError{Status: http.StatusBadRequest, Err: err}
	}

	ev, ok, err := Classify(raw)
	if err != nil {
		return Result{}, &RejectError{Status: http.StatusBadRequest, Err: err}
	}
	if !ok {
		log.Printf("[webhook] ignoring unhandled event type")
		return Result{Handled: false}, nil
	}

	now := r.now()
	patch, dest, label := Changes(ev, now)

	applied := false
	if r.updater != nil {
		applied = r.updater.Apply(ctx, ev.Email, patch)
	} else {
		log.Printf("[webhook] contact store not configured; %s for %s not recorded", ev.Type, ev.Email)
	}

	if r.publisher != nil {
		r.publisher.Publish(model.Notification{
			Type:        ev.Type,
			Email:       ev.Email,
			Destination: dest,
			Label:       label,
			Applied:     applied,
			At:          now,
		})
	}
	return Result{Handled: true, Type: ev.Type, Applied: applied}, nil
}
