package records

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/researchloop/outreach/backend/internal/model/record"
)

// Property names of the subjects database.
const (
	PropEmail           = "Email"
	PropSurveyToken     = "Survey Token"
	PropTherapistID     = "Therapist ID"
	PropName            = "Name"
	PropLastEngaged     = "Last Engaged"
	PropEmailOpened     = "Email Opened"
	PropSandboxClicked  = "Sandbox Clicked"
	PropSurveyClicked   = "Survey Clicked"
	PropCalendarClicked = "Calendar Clicked"
	PropLastClickedLink = "Last Clicked Link"
	PropSurveyCompleted = "Survey Completed"
)

// DefaultTimeout bounds a resolve+patch pair that runs inline in a webhook
// request.
const DefaultTimeout = 5 * time.Second

// Store is the subset of the contact store the updater needs.
type Store interface {
	QueryOne(ctx context.Context, database string, f Filter) (record.Record, error)
	Patch(ctx context.Context, id string, p record.Patch) error
}

// Updater resolves subjects by email and applies engagement patches on a
// best-effort basis.
type Updater struct {
	store    Store
	database string
	timeout  time.Duration
}

func NewUpdater(store Store, database string, timeout time.Duration) *Updater {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Updater{store: store, database: database, timeout: timeout}
}

// Resolve finds the subject whose email equals the target.
func (u *Updater) Resolve(ctx context.Context, email string) (record.Record, error) {
	return u.store.QueryOne(ctx, u.database, Filter{
		Property: PropEmail,
		Type:     "email",
		Equals:   strings.TrimSpace(email),
	})
}

// Apply resolves email and patches the record. Misses and store failures
// are logged and reported as false; they never reach the caller as errors.
// The timeout ignores cancellation of ctx.
func (u *Updater) Apply(ctx context.Context, email string, p record.Patch) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.timeout)
	defer cancel()

	rec, err := u.Resolve(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Printf("[records] no subject found for email=%s", email)
		} else {
			log.Printf("[records] lookup failed for email=%s: %v", email, err)
		}
		return false
	}

	if err := u.store.Patch(ctx, rec.ID, p); err != nil {
		log.Printf("[records] patch failed for record=%s: %v", rec.ID, err)
		return false
	}
	log.Printf("[records] updated record=%s fields=%d", rec.ID, len(p))
	return true
}
