package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/researchloop/outreach/backend/internal/model/record"
	"github.com/researchloop/outreach/backend/internal/service/engagement"
	"github.com/researchloop/outreach/backend/internal/service/records"
)

const secret = "whsec_test"

type recordingUpdater struct {
	calls   int
	patches []record.Patch
}

func (u *recordingUpdater) Apply(_ context.Context, _ string, p record.Patch) bool {
	u.calls++
	u.patches = append(u.patches, p)
	return true
}

func setupRouter(secret string) (*chi.Mux, *recordingUpdater) {
	updater := &recordingUpdater{}
	h := New(engagement.NewReceiver(secret, updater, nil))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, updater
}

func post(r http.Handler, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/email", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(engagement.SignatureHeader, signature)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func sign(body string) string {
	return engagement.SignatureHeaderValue(secret, time.Now().Unix(), []byte(body))
}

func TestDeliveryClickedSandbox(t *testing.T) {
	r, updater := setupRouter(secret)
	body := `{"event":"clicked","url":"https://x/y?dest=sandbox","message":{"email":"a@b.com"}}`

	rr := post(r, body, sign(body))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if updater.calls != 1 {
		t.Fatalf("expected one store update, got %d", updater.calls)
	}
	patch := updater.patches[0]
	if _, ok := patch[records.PropSandboxClicked]; !ok {
		t.Fatal("expected sandbox click timestamp")
	}
	if s, _ := patch[records.PropLastClickedLink].TextValue(); s != "Sandbox" {
		t.Fatalf("expected Sandbox label, got %q", s)
	}
}

func TestDeliveryUnhandledEvent(t *testing.T) {
	r, updater := setupRouter(secret)
	body := `{"type":"bounced","email":"a@b.com"}`

	rr := post(r, body, sign(body))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if resp["status"] != "unhandled" || resp["received"] != true {
		t.Fatalf("unexpected body %v", resp)
	}
	if updater.calls != 0 {
		t.Fatal("expected no store call")
	}
}

func TestDeliveryStatusCodes(t *testing.T) {
	good := `{"event":"opened","email":"a@b.com"}`

	r, _ := setupRouter(secret)
	req := httptest.NewRequest(http.MethodGet, "/webhooks/email", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed || rr.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("expected 405 with Allow header, got %d", rr.Code)
	}

	noSecret, _ := setupRouter("")
	if rr := post(noSecret, good, sign(good)); rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without secret, got %d", rr.Code)
	}

	if rr := post(r, good, ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without signature, got %d", rr.Code)
	}
	if rr := post(r, good, "t=1,v1=00"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad digest, got %d", rr.Code)
	}

	bad := `{"event":`
	if rr := post(r, bad, sign(bad)); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rr.Code)
	}

	noRecipient := `{"event":"opened"}`
	if rr := post(r, noRecipient, sign(noRecipient)); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing recipient, got %d", rr.Code)
	}
}

func TestDeliveryTooLarge(t *testing.T) {
	r, _ := setupRouter(secret)
	big := bytes.Repeat([]byte("a"), maxBodyBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/email", bytes.NewReader(big))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}
