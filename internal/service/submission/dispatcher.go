package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	model "github.com/researchloop/outreach/backend/internal/model/submission"
)

// Error is shown on the retryable error screen. The dispatcher never
// retries on its own.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Dispatcher posts the canonical payload exactly once per call.
type Dispatcher struct {
	BaseURL    string
	SuccessURL string
	HTTP       *http.Client
	Storage    Storage
}

// NewDispatcher returns a dispatcher that reports success through storage.
// successURL must be an absolute URL.
func NewDispatcher(baseURL, successURL string, storage Storage) (*Dispatcher, error) {
	u, err := url.Parse(strings.TrimSpace(successURL))
	if err != nil {
		return nil, fmt.Errorf("invalid success url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid success url %q: must be absolute", successURL)
	}
	return &Dispatcher{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		SuccessURL: u.String(),
		HTTP:       &http.Client{Timeout: 15 * time.Second},
		Storage:    storage,
	}, nil
}

// Submit sends the payload and, on success, records the session in
// storage and returns the success-page URL to navigate to.
func (d *Dispatcher) Submit(ctx context.Context, p model.Payload) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", &Error{Message: "Could not prepare your answers.", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+"/api/submit", bytes.NewReader(body))
	if err != nil {
		return "", &Error{Message: "Could not prepare your answers.", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.HTTP.Do(req)
	if err != nil {
		log.Printf("[submit] transport failure for session=%s: %v", p.SessionID, err)
		return "", &Error{Message: "We couldn't reach the server. Please try again.", Err: err}
	}
	defer resp.Body.Close()

	var out model.Response
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || decodeErr != nil || !out.Success {
		msg := strings.TrimSpace(out.Error)
		if msg == "" {
			msg = fmt.Sprintf("Submission failed (status %d). Please try again.", resp.StatusCode)
		}
		log.Printf("[submit] rejected session=%s status=%d: %s", p.SessionID, resp.StatusCode, msg)
		return "", &Error{Message: msg, Err: decodeErr}
	}

	d.Storage.Set(KeySessionID, p.SessionID)
	if p.Therapist != nil && p.Therapist.Email != "" {
		d.Storage.Set(KeySubjectEmail, p.Therapist.Email)
	}

	// accepted by the server from here on
	redirect, err := withTracking(d.SuccessURL, successParams, p.Metadata.UTM)
	if err != nil {
		log.Printf("[submit] success url unusable, redirecting without tracking: %v", err)
		return d.SuccessURL, nil
	}
	return redirect, nil
}
