package submission

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/researchloop/outreach/backend/internal/model/session"
)

var (
	successParams  = url.Values{"survey": {"complete"}, "source": {"research_email"}}
	interestParams = url.Values{"source": {"research_email"}, "intent": {"interest"}}
)

// withTracking appends the fixed parameters and every preserved utm_*
// campaign parameter to target. Existing query values are kept.
func withTracking(target string, fixed url.Values, utm session.UTM) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse tracking target: %w", err)
	}
	q := u.Query()
	for k, vs := range fixed {
		q.Del(k)
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	for k, v := range utm {
		if !strings.HasPrefix(k, "utm_") || strings.TrimSpace(v) == "" {
			continue
		}
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// TrackInterestClick returns the outbound URL for the auxiliary interest
// link and flags the click for the downstream page.
func TrackInterestClick(storage Storage, target string, utm session.UTM) (string, error) {
	out, err := withTracking(target, interestParams, utm)
	if err != nil {
		return "", err
	}
	storage.Set(KeyInterestClicks, "1")
	return out, nil
}
