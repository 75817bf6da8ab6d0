package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/tanweijie/studysprint/internal/domain/session"
)

// Gateway is a mock for the API client surface the view coordinators
// consume. One mock covers every consumer-side Gateway interface.
type Gateway struct {
	mock.Mock
}

func (m *Gateway) ListSessions(ctx context.Context, module, date string) ([]session.Session, error) {
	args := m.Called(ctx, module, date)
	if sessions, ok := args.Get(0).([]session.Session); ok {
		return sessions, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Gateway) GetSession(ctx context.Context, id int64) (session.Detail, error) {
	args := m.Called(ctx, id)
	if detail, ok := args.Get(0).(session.Detail); ok {
		return detail, args.Error(1)
	}
	return session.Detail{}, args.Error(1)
}

func (m *Gateway) CreateSession(ctx context.Context, draft session.Draft) (int64, error) {
	args := m.Called(ctx, draft)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Gateway) UpdateSession(ctx context.Context, id int64, draft session.Draft) error {
	args := m.Called(ctx, id, draft)
	return args.Error(0)
}

func (m *Gateway) DeleteSession(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Gateway) CompleteSession(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Gateway) JoinSession(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Gateway) LeaveSession(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Gateway) MySessions(ctx context.Context) ([]session.Session, error) {
	args := m.Called(ctx)
	if sessions, ok := args.Get(0).([]session.Session); ok {
		return sessions, args.Error(1)
	}
	return nil, args.Error(1)
}

// Confirmer is a mock for the human-in-the-loop confirmation gate.
type Confirmer struct {
	mock.Mock
}

func (m *Confirmer) Confirm(prompt string) bool {
	args := m.Called(prompt)
	return args.Bool(0)
}

// Navigator records navigation targets for assertions.
type Navigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *Navigator) Navigate(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

// Paths returns every navigation so far, in order.
func (n *Navigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.paths))
	copy(out, n.paths)
	return out
}

// Last returns the most recent navigation, or "".
func (n *Navigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}
