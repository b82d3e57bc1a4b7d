package engagement

import (
	"encoding/json"
	"errors"
	"strings"

	model "github.com/researchloop/outreach/backend/internal/model/engagement"
)

var (
	ErrMalformedBody = errors.New("webhook body is not valid JSON")
	ErrNoRecipient   = errors.New("webhook event has no recipient email")
)

var (
	eventTypeKeys      = []string{"event", "type"}
	clickURLKeys       = []string{"url", "link"}
	recognizedPrefixes = []string{"email.", "message."}
)

// Parse decodes a webhook body into a generic object.
func Parse(body []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, ErrMalformedBody
	}
	return raw, nil
}

// Classify selects the event type and recipient. ok is false for absent or
// unrecognized event types, which are acknowledged without effect.
func Classify(raw map[string]any) (ev model.Event, ok bool, err error) {
	typ := eventType(raw)
	if typ != model.Opened && typ != model.Clicked {
		return model.Event{}, false, nil
	}

	email := recipient(raw)
	if email == "" {
		return model.Event{}, false, ErrNoRecipient
	}

	return model.Event{
		Type:  typ,
		Email: email,
		URL:   clickURL(raw),
		Raw:   raw,
	}, true, nil
}

func eventType(raw map[string]any) model.Type {
	for _, key := range eventTypeKeys {
		s, _ := raw[key].(string)
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		for _, prefix := range recognizedPrefixes {
			s = strings.TrimPrefix(s, prefix)
		}
		return model.Type(s)
	}
	return ""
}

// recipient prefers message.email, then message.to (first entry when a
// list), then the top-level email.
func recipient(raw map[string]any) string {
	if msg, ok := raw["message"].(map[string]any); ok {
		if s := stringValue(msg["email"]); s != "" {
			return s
		}
		switch to := msg["to"].(type) {
		case string:
			if s := strings.TrimSpace(to); s != "" {
				return s
			}
		case []any:
			if len(to) > 0 {
				if s := stringValue(to[0]); s != "" {
					return s
				}
			}
		}
	}
	return stringValue(raw["email"])
}

func clickURL(raw map[string]any) string {
	for _, key := range clickURLKeys {
		if s := stringValue(raw[key]); s != "" {
			return s
		}
	}
	if click, ok := raw["click"].(map[string]any); ok {
		for _, key := range clickURLKeys {
			if s := stringValue(click[key]); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
