package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/researchloop/outreach/backend/internal/model/session"
)

var (
	ErrTokenRequired   = errors.New("survey token is required")
	ErrSessionNotFound = errors.New("session not found")
	ErrTokenMismatch   = errors.New("session does not belong to token")
)

// Issued is a session handed out by the exchange endpoint.
type Issued struct {
	ID        string
	Token     string
	Subject   *session.Subject
	Preview   bool
	CreatedAt time.Time
}

// Service tracks issued survey sessions in memory. Entries expire after ttl
// and are never persisted.
type Service struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]Issued
	now      func() time.Time
}

// NewService returns an empty registry.
func NewService(ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		ttl:      ttl,
		sessions: make(map[string]Issued),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Issue provisions a session bound to a token and subject.
func (s *Service) Issue(_ context.Context, token string, subject *session.Subject, preview bool) (Issued, error) {
	if token == "" {
		return Issued{}, ErrTokenRequired
	}

	issued := Issued{
		ID:        uuid.NewString(),
		Token:     token,
		Subject:   subject,
		Preview:   preview,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.pruneLocked()
	s.sessions[issued.ID] = issued
	s.mu.Unlock()

	return issued, nil
}

// Lookup returns the session with id when it was issued for token.
func (s *Service) Lookup(_ context.Context, id, token string) (Issued, error) {
	s.mu.RLock()
	issued, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || s.now().Sub(issued.CreatedAt) > s.ttl {
		return Issued{}, ErrSessionNotFound
	}
	if issued.Token != token {
		return Issued{}, ErrTokenMismatch
	}
	return issued, nil
}

// Complete forgets a session once its submission has been accepted.
func (s *Service) Complete(_ context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len reports the number of live sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) pruneLocked() {
	cutoff := s.now().Add(-s.ttl)
	for id, issued := range s.sessions {
		if issued.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}
