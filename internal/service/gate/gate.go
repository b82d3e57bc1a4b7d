package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/researchloop/outreach/backend/internal/model/session"
)

// DefaultConsentVersion applies when the exchange omits a consent version.
const DefaultConsentVersion = "2024-09-research-v1"

// PreviewToken is the reserved token for preview sessions.
const PreviewToken = "preview"

var previewSubjectIDs = map[string]struct{}{
	"preview":           {},
	"preview-therapist": {},
}

// DisabledError puts the survey into its terminal disabled state. Nothing
// re-enables the survey short of a reload.
type DisabledError struct {
	Reason string
	Err    error
}

func (e *DisabledError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("survey disabled: %s: %v", e.Reason, e.Err)
	}
	return "survey disabled: " + e.Reason
}

func (e *DisabledError) Unwrap() error { return e.Err }

// IsPreview reports whether the token or any subject identifier matches a
// reserved preview sentinel exactly.
func IsPreview(token string, subject *session.Subject) bool {
	if token == PreviewToken {
		return true
	}
	if subject == nil {
		return false
	}
	for _, id := range []string{subject.RecordID, subject.TherapistID} {
		if _, ok := previewSubjectIDs[id]; ok {
			return true
		}
	}
	return false
}

// Client exchanges an access token for session context.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for the survey API rooted at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Open issues a single exchange request. An empty token fails without any
// network call.
func (c *Client) Open(ctx context.Context, token string, utm session.UTM) (session.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return session.Session{}, &DisabledError{Reason: "missing survey token"}
	}

	endpoint := c.BaseURL + "/api/session?" + url.Values{"token": {token}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return session.Session{}, &DisabledError{Reason: "could not build session request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return session.Session{}, &DisabledError{Reason: "survey service unreachable", Err: err}
	}
	defer resp.Body.Close()

	var out session.ExchangeResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reason := strings.TrimSpace(out.Error)
		if reason == "" {
			reason = fmt.Sprintf("session exchange returned %d", resp.StatusCode)
		}
		return session.Session{}, &DisabledError{Reason: reason}
	}
	if decodeErr != nil {
		return session.Session{}, &DisabledError{Reason: "malformed session response", Err: decodeErr}
	}
	if !out.Success || out.Data == nil {
		reason := strings.TrimSpace(out.Error)
		if reason == "" {
			reason = "session could not be verified"
		}
		return session.Session{}, &DisabledError{Reason: reason}
	}

	version := DefaultConsentVersion
	if out.Consent != nil && strings.TrimSpace(out.Consent.Version) != "" {
		version = strings.TrimSpace(out.Consent.Version)
	}

	return session.Session{
		Token:          token,
		ID:             out.Data.SessionID,
		ConsentVersion: version,
		Subject:        out.Data.Therapist,
		UTM:            utm,
		Preview:        IsPreview(token, out.Data.Therapist),
	}, nil
}
