package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/researchloop/outreach/backend/internal/model/session"
)

func TestOpenEmptyTokenMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer ts.Close()

	_, err := New(ts.URL).Open(context.Background(), "  ", nil)
	var disabled *DisabledError
	if !errors.As(err, &disabled) {
		t.Fatalf("expected DisabledError, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected zero network calls, got %d", calls.Load())
	}
}

func TestOpenSuccessDefaultsConsentVersion(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/session" || r.URL.Query().Get("token") != "tok_1" {
			t.Fatalf("unexpected request %s", r.URL.String())
		}
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"session_id":"s-1","therapist":{"record_id":"rec_1","email":"a@b.com"}}}`))
	}))
	defer ts.Close()

	s, err := New(ts.URL).Open(context.Background(), "tok_1", session.UTM{"utm_source": "mail"})
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if s.ID != "s-1" || s.SubjectEmail() != "a@b.com" {
		t.Fatalf("unexpected session %+v", s)
	}
	if s.ConsentVersion != DefaultConsentVersion {
		t.Fatalf("expected default consent version, got %q", s.ConsentVersion)
	}
	if s.Preview {
		t.Fatal("expected live session")
	}
	if s.UTM["utm_source"] != "mail" {
		t.Fatal("expected utm parameters to be carried")
	}
}

func TestOpenApplicationFailureDisables(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"token revoked"}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL).Open(context.Background(), "tok_1", nil)
	var disabled *DisabledError
	if !errors.As(err, &disabled) || disabled.Reason != "token revoked" {
		t.Fatalf("expected token revoked reason, got %v", err)
	}
}

func TestOpenNonSuccessStatusDisables(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"invalid or expired token"}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL).Open(context.Background(), "tok_1", nil)
	var disabled *DisabledError
	if !errors.As(err, &disabled) || disabled.Reason != "invalid or expired token" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestOpenPreviewTokenIgnoresSubject(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"session_id":"s-2","therapist":{"record_id":"rec_real","therapist_id":"T-9"}},"consent":{"version":"v9"}}`))
	}))
	defer ts.Close()

	s, err := New(ts.URL).Open(context.Background(), PreviewToken, nil)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if !s.Preview {
		t.Fatal("expected preview session")
	}
	if s.ConsentVersion != "v9" {
		t.Fatalf("expected consent v9, got %q", s.ConsentVersion)
	}
}

func TestIsPreviewSubjectSentinel(t *testing.T) {
	if !IsPreview("tok", &session.Subject{TherapistID: "preview-therapist"}) {
		t.Fatal("expected sentinel therapist id to mark preview")
	}
	if IsPreview("tok", &session.Subject{TherapistID: "preview-therapist-2"}) {
		t.Fatal("expected exact match only")
	}
	if IsPreview("Preview", nil) {
		t.Fatal("expected token match to be case sensitive")
	}
}
