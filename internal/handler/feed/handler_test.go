package feed

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/researchloop/outreach/backend/internal/model/engagement"
	feedService "github.com/researchloop/outreach/backend/internal/service/feed"
)

const operatorToken = "feed-secret"

func startFeed(t *testing.T, hub *feedService.Hub, opts Options) string {
	t.Helper()
	r := chi.NewRouter()
	New(hub, opts).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/engagement/feed"
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

func TestFeedStreamsNotifications(t *testing.T) {
	hub := feedService.NewHub()
	url := startFeed(t, hub, Options{Token: operatorToken})
	conn, _, err := websocket.DefaultDialer.Dial(url, bearer(operatorToken))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello frame
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != "connected" {
		t.Fatalf("expected connected frame, got %q", hello.Type)
	}

	// the subscription is registered before the hello frame is written
	hub.Publish(engagement.Notification{
		Type:        engagement.Clicked,
		Email:       "dana@example.com",
		Destination: "survey",
		Applied:     true,
		At:          time.Now(),
	})

	var got frame
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read notification: %v", err)
	}
	if got.Type != "engagement" || got.Data == nil {
		t.Fatalf("unexpected frame %+v", got)
	}
	if got.Data.Destination != "survey" || got.Data.Email != "dana@example.com" {
		t.Fatalf("unexpected notification %+v", got.Data)
	}
}

func TestFeedUnsubscribesOnClose(t *testing.T) {
	hub := feedService.NewHub()
	url := startFeed(t, hub, Options{Token: operatorToken})
	conn, _, err := websocket.DefaultDialer.Dial(url+"?access_token="+operatorToken, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	var hello frame
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for hub.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected subscriber to be released, still %d", hub.Subscribers())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestFeedRejectsUnauthorizedUpgrade(t *testing.T) {
	hub := feedService.NewHub()
	url := startFeed(t, hub, Options{Token: operatorToken})

	for name, header := range map[string]http.Header{
		"missing": nil,
		"wrong":   bearer("guess"),
	} {
		conn, resp, err := websocket.DefaultDialer.Dial(url, header)
		if err == nil {
			conn.Close()
			t.Fatalf("%s: expected dial to fail", name)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %v", name, resp)
		}
	}
	if hub.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.Subscribers())
	}
}

func TestFeedDisabledWithoutToken(t *testing.T) {
	url := startFeed(t, feedService.NewHub(), Options{})
	_, resp, err := websocket.DefaultDialer.Dial(url, bearer(""))
	if err == nil || resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %v (%v)", resp, err)
	}
}

func TestFeedRestrictsOrigins(t *testing.T) {
	url := startFeed(t, feedService.NewHub(), Options{
		Token:          operatorToken,
		AllowedOrigins: []string{"https://ops.example.org/"},
	})

	header := bearer(operatorToken)
	header.Set("Origin", "https://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil || resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign origin, got %v (%v)", resp, err)
	}

	header.Set("Origin", "https://ops.example.org")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("expected allowed origin to connect: %v", err)
	}
	conn.Close()
}
