package submission

import "sync"

// Keys written to page-local storage for the downstream page.
const (
	KeySessionID      = "research_session_id"
	KeySubjectEmail   = "research_subject_email"
	KeyInterestClicks = "research_interest_clicked"
)

// Storage is ephemeral, page-local key/value storage.
type Storage interface {
	Set(key, value string)
	Get(key string) (string, bool)
}

// MemoryStorage lives as long as the process that owns it.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (s *MemoryStorage) Set(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

func (s *MemoryStorage) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}
