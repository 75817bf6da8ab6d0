package forms

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tanweijie/studysprint/internal/auth"
	"github.com/tanweijie/studysprint/internal/domain/session"
)

// Service coordinates the create and edit forms: advisory validation,
// submission, and the navigation that follows a successful submit.
type Service struct {
	gateway Gateway
	authn   Auth
	nav     Navigator
	logger  *slog.Logger

	mu   sync.Mutex
	busy bool
}

// NewService creates a forms service.
func NewService(gateway Gateway, authn Auth, nav Navigator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		gateway: gateway,
		authn:   authn,
		nav:     nav,
		logger:  logger,
	}
}

// Create validates and submits a new session, then navigates to the detail
// page of the server-issued id. Validation failures never reach the network.
func (s *Service) Create(ctx context.Context, draft session.Draft) (int64, error) {
	if err := ValidateDraft(draft); err != nil {
		return 0, err
	}
	if !s.authn.IsAuthenticated() {
		s.nav.Navigate("/login")
		return 0, auth.ErrLoginRequired
	}
	if !s.begin() {
		return 0, ErrBusy
	}
	defer s.end()

	id, err := s.gateway.CreateSession(ctx, draft)
	if err != nil {
		if !s.authn.IsAuthenticated() {
			s.nav.Navigate("/login")
		}
		return 0, err
	}

	s.logger.Info("session created", "id", id, "title", draft.Title)
	s.nav.Navigate(fmt.Sprintf("/sessions/%d", id))
	return id, nil
}

// LoadForEdit fetches the existing session and converts it into an editable
// draft. An unparseable server datetime becomes an empty field, never an
// error. Calling it again reloads from the server.
func (s *Service) LoadForEdit(ctx context.Context, id int64) (session.Draft, error) {
	detail, err := s.gateway.GetSession(ctx, id)
	if err != nil {
		return session.Draft{}, fmt.Errorf("loading session %d: %w", id, err)
	}

	sess := detail.Session
	return session.Draft{
		Title:    sess.Title,
		Module:   sess.Module,
		Venue:    sess.Venue,
		Datetime: ToDatetimeLocal(sess.Datetime),
		Capacity: sess.Capacity,
	}, nil
}

// Update validates and submits changed fields, then navigates back to the
// detail page of the same id.
func (s *Service) Update(ctx context.Context, id int64, draft session.Draft) error {
	if err := ValidateDraft(draft); err != nil {
		return err
	}
	if !s.authn.IsAuthenticated() {
		s.nav.Navigate("/login")
		return auth.ErrLoginRequired
	}
	if !s.begin() {
		return ErrBusy
	}
	defer s.end()

	if err := s.gateway.UpdateSession(ctx, id, draft); err != nil {
		if !s.authn.IsAuthenticated() {
			s.nav.Navigate("/login")
		}
		return err
	}

	s.logger.Info("session updated", "id", id)
	s.nav.Navigate(fmt.Sprintf("/sessions/%d", id))
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
