package feed

import (
	"testing"

	"github.com/researchloop/outreach/backend/internal/model/engagement"
)

func TestPublishReachesSubscribers(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Publish(engagement.Notification{Type: engagement.Opened, Email: "a@b.com"})

	got := <-ch
	if got.Email != "a@b.com" {
		t.Fatalf("unexpected notification %+v", got)
	}
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+1; i++ {
		hub.Publish(engagement.Notification{Type: engagement.Clicked})
	}
	if hub.Subscribers() != 0 {
		t.Fatalf("expected slow subscriber removed, got %d", hub.Subscribers())
	}

	n := 0
	for range ch {
		n++
	}
	if n != subscriberBuffer {
		t.Fatalf("expected %d buffered notifications, got %d", subscriberBuffer, n)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe()
	cancel()
	cancel()
	if hub.Subscribers() != 0 {
		t.Fatal("expected no subscribers")
	}
}
