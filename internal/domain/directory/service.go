package directory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/tanweijie/studysprint/internal/auth"
	"github.com/tanweijie/studysprint/internal/domain/session"
)

// Filter narrows the directory listing. Zero values mean "all". The filter is
// transient state scoped to this view instance.
type Filter struct {
	Module string
	Date   string // ISO date, YYYY-MM-DD
}

// Service coordinates the filterable directory of upcoming sessions.
type Service struct {
	gateway Gateway
	authn   Auth
	nav     Navigator
	logger  *slog.Logger

	mu       sync.Mutex
	busy     bool
	filter   Filter
	sessions []session.Session
}

// NewService creates a directory service.
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

// Load fetches the listing for filter. Every call round-trips: results are
// never cached across filter changes.
func (s *Service) Load(ctx context.Context, filter Filter) error {
	if !s.begin() {
		return ErrBusy
	}
	defer s.end()

	return s.reload(ctx, filter)
}

// Sessions returns the last loaded listing in server order.
func (s *Service) Sessions() []session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]session.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Filter returns the filter of the last load.
func (s *Service) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// ModuleOptions derives the distinct non-empty module values of the loaded
// result set, sorted lexicographically. The options narrow together with the
// result set: under a module filter only the surviving modules remain.
func (s *Service) ModuleOptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.Module != "" {
			seen[sess.Module] = struct{}{}
		}
	}
	options := make([]string, 0, len(seen))
	for module := range seen {
		options = append(options, module)
	}
	sort.Strings(options)
	return options
}

// Join adds the current user to a session and reconciles by reloading the
// listing under the current filter.
func (s *Service) Join(ctx context.Context, id int64) error {
	return s.mutate(ctx, "join", id, s.gateway.JoinSession)
}

// Leave removes the current user from a session and reconciles by reloading
// the listing under the current filter.
func (s *Service) Leave(ctx context.Context, id int64) error {
	return s.mutate(ctx, "leave", id, s.gateway.LeaveSession)
}

// mutate applies the shared action pattern: auth gate, request, then exactly
// one reload of the same scope when the outcome can have changed server
// state (success) or invalidated the session (token cleared by a 401).
func (s *Service) mutate(ctx context.Context, name string, id int64, fn func(context.Context, int64) error) error {
	if !s.authn.IsAuthenticated() {
		s.nav.Navigate("/login")
		return auth.ErrLoginRequired
	}
	if !s.begin() {
		return ErrBusy
	}
	defer s.end()

	if err := fn(ctx, id); err != nil {
		if !s.authn.IsAuthenticated() {
			// The failure cleared the token. Reload so the view reflects
			// authoritative counts, then send the user to login.
			if reloadErr := s.reload(ctx, s.currentFilter()); reloadErr != nil {
				s.logger.Warn("reload after auth loss failed", "error", reloadErr)
			}
			s.nav.Navigate("/login")
		}
		return fmt.Errorf("%s session %d: %w", name, id, err)
	}

	return s.reload(ctx, s.currentFilter())
}

func (s *Service) reload(ctx context.Context, filter Filter) error {
	sessions, err := s.gateway.ListSessions(ctx, filter.Module, filter.Date)
	if err != nil {
		return fmt.Errorf("loading sessions: %w", err)
	}

	s.mu.Lock()
	s.filter = filter
	s.sessions = sessions
	s.mu.Unlock()

	s.logger.Debug("directory loaded",
		"count", len(sessions),
		"module", filter.Module,
		"date", filter.Date,
	)
	return nil
}

func (s *Service) currentFilter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
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
