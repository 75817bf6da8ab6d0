package detail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tanweijie/studysprint/internal/auth"
	"github.com/tanweijie/studysprint/internal/domain/session"
)

// State is the load state of the view.
type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
)

// Service coordinates one session's detail view: the atomic
// {session, participants} snapshot, the action set legal for the current
// identity, and the mutations that act on the session. Every successful
// mutating action except delete is followed by exactly one snapshot reload;
// the client never patches its local copy.
type Service struct {
	gateway Gateway
	authn   Auth
	nav     Navigator
	logger  *slog.Logger

	mu       sync.Mutex
	busy     bool
	id       int64
	state    State
	loadErr  error
	snapshot session.Detail
}

// NewService creates a detail service.
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

// Load fetches the snapshot for id. The view transitions Loading -> Ready on
// success, Loading -> Failed otherwise.
func (s *Service) Load(ctx context.Context, id int64) error {
	if !s.begin() {
		return ErrBusy
	}
	defer s.end()

	s.mu.Lock()
	s.id = id
	s.state = StateLoading
	s.loadErr = nil
	s.mu.Unlock()

	return s.reload(ctx)
}

// State reports the view state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the load failure, if any.
func (s *Service) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Snapshot returns the loaded snapshot. Accessing it before a successful
// load is an error, never a zero-value read.
func (s *Service) Snapshot() (session.Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return session.Detail{}, ErrNotLoaded
	}
	return s.snapshot, nil
}

// Actions computes the action set for the current identity against the
// loaded snapshot. Pure advice for rendering; the service re-validates.
func (s *Service) Actions() (session.Actions, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return session.Actions{}, err
	}
	return session.PermittedActions(s.authn.CurrentIdentity(), snap), nil
}

// Join adds the current user to the roster. Fullness is not pre-checked
// here: the view disables the action, and a forced call surfaces the
// service's own conflict answer.
func (s *Service) Join(ctx context.Context) error {
	return s.act(ctx, "join", s.gateway.JoinSession, s.reload)
}

// Leave removes the current user from the roster. Never gated by fullness or
// completion on this view: those gates apply to joining only.
func (s *Service) Leave(ctx context.Context) error {
	return s.act(ctx, "leave", s.gateway.LeaveSession, s.reload)
}

// Complete marks the session COMPLETED.
func (s *Service) Complete(ctx context.Context) error {
	return s.act(ctx, "complete", s.gateway.CompleteSession, s.reload)
}

// Delete removes the session and navigates back to the directory. There is
// nothing left to reload.
func (s *Service) Delete(ctx context.Context) error {
	return s.act(ctx, "delete", s.gateway.DeleteSession, func(context.Context) error {
		s.nav.Navigate("/sessions")
		return nil
	})
}

// Edit navigates to the edit form. Creator-only.
func (s *Service) Edit() error {
	actions, err := s.Actions()
	if err != nil {
		return err
	}
	if !actions.CanEdit {
		return ErrNotCreator
	}
	s.nav.Navigate(fmt.Sprintf("/sessions/%d/edit", s.currentID()))
	return nil
}

// act applies the shared mutation pattern: auth gate, request, reconcile on
// success, and a login redirect when a failure cost us the token.
func (s *Service) act(ctx context.Context, name string, fn func(context.Context, int64) error, then func(context.Context) error) error {
	if !s.authn.IsAuthenticated() {
		s.nav.Navigate("/login")
		return auth.ErrLoginRequired
	}
	if !s.begin() {
		return ErrBusy
	}
	defer s.end()

	id := s.currentID()
	if err := fn(ctx, id); err != nil {
		if !s.authn.IsAuthenticated() {
			s.nav.Navigate("/login")
		}
		return fmt.Errorf("%s session %d: %w", name, id, err)
	}

	s.logger.Debug("session action applied", "action", name, "id", id)
	return then(ctx)
}

func (s *Service) reload(ctx context.Context) error {
	id := s.currentID()
	snap, err := s.gateway.GetSession(ctx, id)
	if err != nil {
		s.mu.Lock()
		s.state = StateFailed
		s.loadErr = err
		s.mu.Unlock()
		return fmt.Errorf("loading session %d: %w", id, err)
	}

	// The listing counter and the roster length come from different server
	// reporting paths. Divergence is flagged, never reconciled locally.
	if snap.Session.JoinedCount != 0 && snap.Session.JoinedCount != len(snap.Participants) {
		s.logger.Warn("joined_count diverges from roster",
			"id", id,
			"joined_count", snap.Session.JoinedCount,
			"roster", len(snap.Participants),
		)
	}

	s.mu.Lock()
	s.state = StateReady
	s.loadErr = nil
	s.snapshot = snap
	s.mu.Unlock()
	return nil
}

func (s *Service) currentID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
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
