package engagement

import "time"

// Type classifies a mail-service delivery notification.
type Type string

const (
	Opened  Type = "opened"
	Clicked Type = "clicked"
)

// Event is one inbound engagement notification. It is consumed once per
// delivery and never stored by the receiver.
type Event struct {
	Type  Type           `json:"type"`
	Email string         `json:"email"`
	URL   string         `json:"url,omitempty"`
	Raw   map[string]any `json:"-"`
}

// Notification is what the receiver publishes after classifying an event.
type Notification struct {
	Type        Type      `json:"type"`
	Email       string    `json:"email"`
	Destination string    `json:"destination,omitempty"`
	Label       string    `json:"label,omitempty"`
	Applied     bool      `json:"applied"`
	At          time.Time `json:"at"`
}
