package auth

import "sync"

// Store persists the bearer token. Implementations must be safe for
// concurrent use: the API layer clears the token on 401 responses while
// coordinators read it.
type Store interface {
	Token() string
	SetToken(token string) error
	Clear() error
}

// MemoryStore is a process-local Store with no persistence.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *MemoryStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
