package directory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tanweijie/studysprint/internal/auth"
	"github.com/tanweijie/studysprint/internal/domain/directory"
	"github.com/tanweijie/studysprint/internal/domain/session"
	"github.com/tanweijie/studysprint/internal/mocks"
)

type stubAuth struct {
	authenticated bool
}

func (s *stubAuth) IsAuthenticated() bool { return s.authenticated }

func listing() []session.Session {
	return []session.Session{
		{ID: 1, Title: "Graph algorithms", Module: "CS2040", JoinedCount: 2, Capacity: 4},
		{ID: 2, Title: "Pointers revision", Module: "CS1010", JoinedCount: 1, Capacity: 3},
		{ID: 3, Title: "Recursion drills", Module: "CS1010", JoinedCount: 0, Capacity: 2},
		{ID: 4, Title: "Untagged meetup", Module: "", JoinedCount: 0, Capacity: 0},
	}
}

func TestService_Load(t *testing.T) {
	gateway := &mocks.Gateway{}
	nav := &mocks.Navigator{}
	svc := directory.NewService(gateway, &stubAuth{authenticated: false}, nav, nil)

	gateway.On("ListSessions", mock.Anything, "", "").Return(listing(), nil).Once()

	err := svc.Load(context.Background(), directory.Filter{})
	require.NoError(t, err)
	require.Len(t, svc.Sessions(), 4)
	require.Equal(t, directory.Filter{}, svc.Filter())

	gateway.AssertExpectations(t)
}

func TestService_LoadAlwaysRoundTrips(t *testing.T) {
	gateway := &mocks.Gateway{}
	svc := directory.NewService(gateway, &stubAuth{}, &mocks.Navigator{}, nil)

	gateway.On("ListSessions", mock.Anything, "", "").Return(listing(), nil).Once()
	gateway.On("ListSessions", mock.Anything, "CS1010", "").
		Return(listing()[1:3], nil).Once()

	require.NoError(t, svc.Load(context.Background(), directory.Filter{}))
	require.NoError(t, svc.Load(context.Background(), directory.Filter{Module: "CS1010"}))

	require.Len(t, svc.Sessions(), 2)
	require.Equal(t, "CS1010", svc.Filter().Module)
	gateway.AssertExpectations(t)
}

func TestService_ModuleOptionsNarrowWithResultSet(t *testing.T) {
	gateway := &mocks.Gateway{}
	svc := directory.NewService(gateway, &stubAuth{}, &mocks.Navigator{}, nil)

	gateway.On("ListSessions", mock.Anything, "", "").Return(listing(), nil).Once()
	require.NoError(t, svc.Load(context.Background(), directory.Filter{}))

	// Distinct, sorted, empty module excluded.
	require.Equal(t, []string{"CS1010", "CS2040"}, svc.ModuleOptions())

	gateway.On("ListSessions", mock.Anything, "CS2040", "").
		Return(listing()[:1], nil).Once()
	require.NoError(t, svc.Load(context.Background(), directory.Filter{Module: "CS2040"}))

	require.Equal(t, []string{"CS2040"}, svc.ModuleOptions())
}

func TestService_JoinReloadsCurrentFilter(t *testing.T) {
	gateway := &mocks.Gateway{}
	svc := directory.NewService(gateway, &stubAuth{authenticated: true}, &mocks.Navigator{}, nil)

	gateway.On("ListSessions", mock.Anything, "CS1010", "2026-09-01").
		Return(listing()[1:3], nil).Twice()
	gateway.On("JoinSession", mock.Anything, int64(2)).Return(nil).Once()

	require.NoError(t, svc.Load(context.Background(), directory.Filter{Module: "CS1010", Date: "2026-09-01"}))
	require.NoError(t, svc.Join(context.Background(), 2))

	// Exactly one reload per mutation, under the filter that was active.
	gateway.AssertNumberOfCalls(t, "ListSessions", 2)
	gateway.AssertExpectations(t)
}

func TestService_LeaveReloads(t *testing.T) {
	gateway := &mocks.Gateway{}
	svc := directory.NewService(gateway, &stubAuth{authenticated: true}, &mocks.Navigator{}, nil)

	gateway.On("ListSessions", mock.Anything, "", "").Return(listing(), nil).Twice()
	gateway.On("LeaveSession", mock.Anything, int64(1)).Return(nil).Once()

	require.NoError(t, svc.Load(context.Background(), directory.Filter{}))
	require.NoError(t, svc.Leave(context.Background(), 1))
	gateway.AssertExpectations(t)
}

func TestService_GuestJoinRedirectsWithoutNetwork(t *testing.T) {
	gateway := &mocks.Gateway{}
	nav := &mocks.Navigator{}
	svc := directory.NewService(gateway, &stubAuth{authenticated: false}, nav, nil)

	err := svc.Join(context.Background(), 1)
	require.ErrorIs(t, err, auth.ErrLoginRequired)
	require.Equal(t, "/login", nav.Last())
	gateway.AssertNotCalled(t, "JoinSession", mock.Anything, mock.Anything)
	gateway.AssertNotCalled(t, "ListSessions", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_JoinFailureWithoutAuthLossDoesNotReload(t *testing.T) {
	gateway := &mocks.Gateway{}
	nav := &mocks.Navigator{}
	svc := directory.NewService(gateway, &stubAuth{authenticated: true}, nav, nil)

	joinErr := errors.New("Session is full")
	gateway.On("JoinSession", mock.Anything, int64(3)).Return(joinErr).Once()

	err := svc.Join(context.Background(), 3)
	require.ErrorIs(t, err, joinErr)
	require.Empty(t, nav.Paths())
	gateway.AssertNotCalled(t, "ListSessions", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_JoinAuthLossReloadsThenRedirects(t *testing.T) {
	gateway := &mocks.Gateway{}
	nav := &mocks.Navigator{}
	authn := &stubAuth{authenticated: true}
	svc := directory.NewService(gateway, authn, nav, nil)

	gateway.On("ListSessions", mock.Anything, "", "").Return(listing(), nil).Twice()
	require.NoError(t, svc.Load(context.Background(), directory.Filter{}))

	// The failed call clears the token, as the API layer does on a 401.
	gateway.On("JoinSession", mock.Anything, int64(1)).
		Run(func(mock.Arguments) { authn.authenticated = false }).
		Return(errors.New("HTTP 401")).Once()

	err := svc.Join(context.Background(), 1)
	require.Error(t, err)
	require.Equal(t, "/login", nav.Last())
	gateway.AssertExpectations(t)
}

func TestService_SessionsReturnsCopy(t *testing.T) {
	gateway := &mocks.Gateway{}
	svc := directory.NewService(gateway, &stubAuth{}, &mocks.Navigator{}, nil)

	gateway.On("ListSessions", mock.Anything, "", "").Return(listing(), nil).Once()
	require.NoError(t, svc.Load(context.Background(), directory.Filter{}))

	got := svc.Sessions()
	got[0].Title = "mutated"
	require.Equal(t, "Graph algorithms", svc.Sessions()[0].Title)
}
