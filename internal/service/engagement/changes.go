package engagement

import (
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	model "github.com/researchloop/outreach/backend/internal/model/engagement"
	"github.com/researchloop/outreach/backend/internal/model/record"
	"github.com/researchloop/outreach/backend/internal/service/records"
)

// FallbackLinkLabel is recorded when a click carries no destination.
const FallbackLinkLabel = "Email Link"

// destinationFields maps recognized click destinations to their timestamp
// property.
var destinationFields = map[string]string{
	"sandbox":  records.PropSandboxClicked,
	"survey":   records.PropSurveyClicked,
	"calendar": records.PropCalendarClicked,
}

// Destination extracts the dest query parameter of a click URL.
func Destination(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(u.Query().Get("dest")))
}

// LinkLabel is the human-readable "last clicked link" value.
func LinkLabel(dest string) string {
	if dest == "" {
		return FallbackLinkLabel
	}
	return cases.Title(language.English).String(dest)
}

// Changes computes the record patch for an event at time now.
func Changes(ev model.Event, now time.Time) (patch record.Patch, dest, label string) {
	stamp := record.Date(now)
	patch = record.Patch{records.PropLastEngaged: stamp}

	switch ev.Type {
	case model.Opened:
		patch[records.PropEmailOpened] = stamp
	case model.Clicked:
		dest = Destination(ev.URL)
		if field, ok := destinationFields[dest]; ok {
			patch[field] = stamp
		}
		label = LinkLabel(dest)
		patch[records.PropLastClickedLink] = record.Text(label)
	}
	return patch, dest, label
}
