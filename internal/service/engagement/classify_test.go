package engagement

import (
	"errors"
	"testing"

	model "github.com/researchloop/outreach/backend/internal/model/engagement"
)

func classifyJSON(t *testing.T, body string) (model.Event, bool, error) {
	t.Helper()
	raw, err := Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}
	return Classify(raw)
}

func TestParseRejectsMalformedBody(t *testing.T) {
	for _, body := range []string{`not json`, `null`, `[1,2]`} {
		if _, err := Parse([]byte(body)); !errors.Is(err, ErrMalformedBody) {
			t.Fatalf("expected ErrMalformedBody for %q, got %v", body, err)
		}
	}
}

func TestClassifyEventTypeKeys(t *testing.T) {
	ev, ok, err := classifyJSON(t, `{"type":"email.clicked","email":"a@b.com"}`)
	if err != nil || !ok || ev.Type != model.Clicked {
		t.Fatalf("expected clicked via type key, got %+v %v %v", ev, ok, err)
	}

	ev, ok, err = classifyJSON(t, `{"event":"Opened","email":"a@b.com"}`)
	if err != nil || !ok || ev.Type != model.Opened {
		t.Fatalf("expected opened via event key, got %+v %v %v", ev, ok, err)
	}
}

func TestClassifyUnknownTypeIsIgnoredEvenWithoutRecipient(t *testing.T) {
	for _, body := range []string{`{"event":"bounced"}`, `{}`} {
		_, ok, err := classifyJSON(t, body)
		if ok || err != nil {
			t.Fatalf("expected ignored event for %s, got ok=%v err=%v", body, ok, err)
		}
	}
}

func TestClassifyRecipientResolutionOrder(t *testing.T) {
	cases := map[string]string{
		`{"event":"opened","message":{"email":"direct@x.org","to":"to@x.org"},"email":"top@x.org"}`: "direct@x.org",
		`{"event":"opened","message":{"to":"to@x.org"},"email":"top@x.org"}`:                         "to@x.org",
		`{"event":"opened","message":{"to":["first@x.org","second@x.org"]}}`:                         "first@x.org",
		`{"event":"opened","message":{"to":[]},"email":"top@x.org"}`:                                 "top@x.org",
		`{"event":"opened","email":" top@x.org "}`:                                                   "top@x.org",
	}
	for body, want := range cases {
		ev, ok, err := classifyJSON(t, body)
		if err != nil || !ok {
			t.Fatalf("unexpected result for %s: %v %v", body, ok, err)
		}
		if ev.Email != want {
			t.Fatalf("expected %s for %s, got %s", want, body, ev.Email)
		}
	}
}

func TestClassifyMissingRecipientRejected(t *testing.T) {
	_, _, err := classifyJSON(t, `{"event":"clicked","message":{"subject":"hi"}}`)
	if !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
}

func TestClassifyClickURLNested(t *testing.T) {
	ev, _, _ := classifyJSON(t, `{"event":"clicked","email":"a@b.com","click":{"link":"https://x/y?dest=survey"}}`)
	if ev.URL != "https://x/y?dest=survey" {
		t.Fatalf("unexpected url %q", ev.URL)
	}
}
