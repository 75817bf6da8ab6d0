package forms_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tanweijie/studysprint/internal/auth"
	"github.com/tanweijie/studysprint/internal/domain/forms"
	"github.com/tanweijie/studysprint/internal/domain/session"
	"github.com/tanweijie/studysprint/internal/mocks"
)

type stubAuth struct {
	authenticated bool
}

func (s *stubAuth) IsAuthenticated() bool { return s.authenticated }

func validDraft() session.Draft {
	return session.Draft{
		Title:    "Graph algorithms",
		Module:   "CS2040",
		Venue:    "COM1-0210",
		Datetime: "2026-09-01T14:30",
		Capacity: 4,
	}
}

func TestValidateDraft(t *testing.T) {
	require.NoError(t, forms.ValidateDraft(validDraft()))

	missing := validDraft()
	missing.Venue = "   "
	require.ErrorIs(t, forms.ValidateDraft(missing), forms.ErrInvalidDraft)

	zero := validDraft()
	zero.Capacity = 0
	require.ErrorIs(t, forms.ValidateDraft(zero), forms.ErrInvalidDraft)

	negative := validDraft()
	negative.Capacity = -1
	require.ErrorIs(t, forms.ValidateDraft(negative), forms.ErrInvalidDraft)
}

func TestService_CreateNavigatesToServerID(t *testing.T) {
	gateway := &mocks.Gateway{}
	nav := &mocks.Navigator{}
	svc := forms.NewService(gateway, &stubAuth{authenticated: true}, nav, nil)

	gateway.On("CreateSession", mock.Anything, validDraft()).Return(int64(77), nil).Once()

	id, err := svc.Create(context.Background(), validDraft())
	require.NoError(t, err)
	require.Equal(t, int64(77), id)
	require.Equal(t, "/sessions/77", nav.Last())
	gateway.AssertExpectations(t)
}

func TestService_CreateInvalidDraftNeverReachesNetwork(t *testing.T) {
	gateway := &mocks.Gateway{}
	svc := forms.NewService(gateway, &stubAuth{authenticated: true}, &mocks.Navigator{}, nil)

	draft := validDraft()
	draft.Title = ""

	_, err := svc.Create(context.Background(), draft)
	require.ErrorIs(t, err, forms.ErrInvalidDraft)
	gateway.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestService_CreateGuestRedirects(t *testing.T) {
	gateway := &mocks.Gateway{}
	nav := &mocks.Navigator{}
	svc := forms.NewService(gateway, &stubAuth{authenticated: false}, nav, nil)

	_, err := svc.Create(context.Background(), validDraft())
	require.ErrorIs(t, err, auth.ErrLoginRequired)
	require.Equal(t, "/login", nav.Last())
	gateway.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestService_CreateAuthLossRedirects(t *testing.T) {
	gateway := &mocks.Gateway{}
	nav := &mocks.Navigator{}
	authn := &stubAuth{authenticated: true}
	svc := forms.NewService(gateway, authn, nav, nil)

	gateway.On("CreateSession", mock.Anything, validDraft()).
		Run(func(mock.Arguments) { authn.authenticated = false }).
		Return(int64(0), errors.New("HTTP 401")).Once()

	_, err := svc.Create(context.Background(), validDraft())
	require.Error(t, err)
	require.Equal(t, "/login", nav.Last())
}

func TestService_LoadForEditConvertsDatetime(t *testing.T) {
	gateway := &mocks.Gateway{}
	svc := forms.NewService(gateway, &stubAuth{authenticated: true}, &mocks.Navigator{}, nil)

	gateway.On("GetSession", mock.Anything, int64(42)).Return(session.Detail{
		Session: session.Session{
			ID:       42,
			Title:    "Graph algorithms",
			Module:   "CS2040",
			Venue:    "COM1-0210",
			Datetime: "2026-09-01T14:30:00Z",
			Capacity: 4,
		},
	}, nil).Once()

	draft, err := svc.LoadForEdit(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, "2026-09-01T14:30", draft.Datetime)
	require.Equal(t, "Graph algorithms", draft.Title)
	require.Equal(t, 4, draft.Capacity)
}

func TestService_LoadForEditUnparseableDatetimeBecomesEmpty(t *testing.T) {
	gateway := &mocks.Gateway{}
	svc := forms.NewService(gateway, &stubAuth{authenticated: true}, &mocks.Navigator{}, nil)

	gateway.On("GetSession", mock.Anything, int64(42)).Return(session.Detail{
		Session: session.Session{ID: 42, Title: "Graph algorithms", Datetime: "whenever"},
	}, nil).Once()

	draft, err := svc.LoadForEdit(context.Background(), 42)
	require.NoError(t, err)
	require.Empty(t, draft.Datetime)
}

func TestService_UpdateNavigatesBack(t *testing.T) {
	gateway := &mocks.Gateway{}
	nav := &mocks.Navigator{}
	svc := forms.NewService(gateway, &stubAuth{authenticated: true}, nav, nil)

	gateway.On("UpdateSession", mock.Anything, int64(42), validDraft()).Return(nil).Once()

	require.NoError(t, svc.Update(context.Background(), 42, validDraft()))
	require.Equal(t, "/sessions/42", nav.Last())
}

func TestService_UpdateForbiddenSurfacesError(t *testing.T) {
	gateway := &mocks.Gateway{}
	nav := &mocks.Navigator{}
	svc := forms.NewService(gateway, &stubAuth{authenticated: true}, nav, nil)

	forbidden := errors.New("Only the creator can edit this session")
	gateway.On("UpdateSession", mock.Anything, int64(42), validDraft()).Return(forbidden).Once()

	err := svc.Update(context.Background(), 42, validDraft())
	require.ErrorIs(t, err, forbidden)
	require.Empty(t, nav.Paths())
}
