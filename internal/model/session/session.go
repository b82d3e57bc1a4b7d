package session

// Subject is the contact-store row identifying the survey participant.
type Subject struct {
	RecordID    string `json:"record_id,omitempty"`
	TherapistID string `json:"therapist_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// UTM carries the campaign parameters preserved from the landing URL.
type UTM map[string]string

// Session is the page-lifetime context produced by the session exchange.
type Session struct {
	Token          string   `json:"token"`
	ID             string   `json:"session_id"`
	ConsentVersion string   `json:"consent_version"`
	Subject        *Subject `json:"therapist,omitempty"`
	UTM            UTM      `json:"utm,omitempty"`
	Preview        bool     `json:"preview"`
}

// SubjectEmail returns the known subject email, if any.
func (s Session) SubjectEmail() string {
	if s.Subject == nil {
		return ""
	}
	return s.Subject.Email
}

// ExchangeResponse is the wire shape of the session exchange endpoint.
type ExchangeResponse struct {
	Success bool           `json:"success"`
	Data    *ExchangeData  `json:"data,omitempty"`
	Consent *ConsentConfig `json:"consent,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type ExchangeData struct {
	SessionID string   `json:"session_id"`
	Therapist *Subject `json:"therapist,omitempty"`
}

type ConsentConfig struct {
	Version string `json:"version"`
}
