package mysessions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tanweijie/studysprint/internal/auth"
	"github.com/tanweijie/studysprint/internal/domain/session"
)

// Service coordinates the view of sessions the current user has joined.
type Service struct {
	gateway   Gateway
	authn     Auth
	nav       Navigator
	confirmer Confirmer
	logger    *slog.Logger

	mu       sync.Mutex
	busy     bool
	sessions []session.Session
}

// NewService creates a my-sessions service.
func NewService(gateway Gateway, authn Auth, nav Navigator, confirmer Confirmer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		gateway:   gateway,
		authn:     authn,
		nav:       nav,
		confirmer: confirmer,
		logger:    logger,
	}
}

// Load fetches the caller's joined sessions. A 401 clears the token in the
// API layer; detecting that here sends the user to login no matter which
// view triggered the call.
func (s *Service) Load(ctx context.Context) error {
	if !s.begin() {
		return ErrBusy
	}
	defer s.end()

	return s.reload(ctx)
}

// Sessions returns the last loaded listing in server order.
func (s *Service) Sessions() []session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]session.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Leave removes the caller from a joined session after confirmation. Leaving
// a COMPLETED session is refused outright; a declined confirmation is a
// no-op. Success is reconciled by reloading the listing.
func (s *Service) Leave(ctx context.Context, id int64) error {
	if !s.authn.IsAuthenticated() {
		s.nav.Navigate("/login")
		return auth.ErrLoginRequired
	}

	s.mu.Lock()
	for _, sess := range s.sessions {
		if sess.ID == id && sess.Completed() {
			s.mu.Unlock()
			return ErrSessionCompleted
		}
	}
	s.mu.Unlock()

	if !s.confirmer.Confirm("Leave this session?") {
		return nil
	}
	if !s.begin() {
		return ErrBusy
	}
	defer s.end()

	if err := s.gateway.LeaveSession(ctx, id); err != nil {
		if !s.authn.IsAuthenticated() {
			s.nav.Navigate("/login")
		}
		return fmt.Errorf("leave session %d: %w", id, err)
	}

	s.logger.Debug("left session", "id", id)
	return s.reload(ctx)
}

func (s *Service) reload(ctx context.Context) error {
	sessions, err := s.gateway.MySessions(ctx)
	if err != nil {
		if !s.authn.IsAuthenticated() {
			s.nav.Navigate("/login")
		}
		return fmt.Errorf("loading joined sessions: %w", err)
	}

	s.mu.Lock()
	s.sessions = sessions
	s.mu.Unlock()
	return nil
}

func (s *Service) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *Service) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}
