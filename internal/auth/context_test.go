package auth_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tanweijie/studysprint/internal/auth"
)

type clientMock struct {
	mock.Mock
}

func (m *clientMock) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *clientMock) Register(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func newContext(client auth.Client) (*auth.Context, *auth.Tokens) {
	tokens := auth.NewTokens(&auth.MemoryStore{})
	return auth.NewContext(client, tokens, nil), tokens
}

func TestContext_LoginPersistsToken(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"userId": float64(7), "username": "ana"})

	client := &clientMock{}
	client.On("Login", mock.Anything, "ana", "hunter22").Return(token, nil).Once()

	ctx, tokens := newContext(client)

	got, err := ctx.Login(context.Background(), "ana", "hunter22")
	require.NoError(t, err)
	require.Equal(t, token, got)
	require.Equal(t, token, tokens.Token())

	ident := ctx.CurrentIdentity()
	require.NotNil(t, ident)
	require.Equal(t, "ana", ident.Username)
	require.True(t, ctx.IsAuthenticated())
}

func TestContext_RegisterValidatesLocally(t *testing.T) {
	client := &clientMock{}
	ctx, tokens := newContext(client)

	_, err := ctx.Register(context.Background(), "ana", "hunter22", "hunter23")
	require.ErrorIs(t, err, auth.ErrPasswordMismatch)

	_, err = ctx.Register(context.Background(), "ana", "short", "short")
	require.ErrorIs(t, err, auth.ErrPasswordTooShort)

	// Neither failure reached the network.
	client.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)

	client.On("Register", mock.Anything, "ana", "hunter22").Return("User registered", nil).Once()
	msg, err := ctx.Register(context.Background(), "ana", "hunter22", "hunter22")
	require.NoError(t, err)
	require.Equal(t, "User registered", msg)

	// Registering never logs in.
	require.Empty(t, tokens.Token())
	require.False(t, ctx.IsAuthenticated())
}

func TestContext_Logout(t *testing.T) {
	ctx, tokens := newContext(&clientMock{})
	require.NoError(t, tokens.SetToken(mintToken(t, jwt.MapClaims{"userId": float64(1)})))
	require.True(t, ctx.IsAuthenticated())

	require.NoError(t, ctx.Logout())
	require.False(t, ctx.IsAuthenticated())
	require.Nil(t, ctx.CurrentIdentity())
}

func TestContext_SubscribeSeesEveryTokenChange(t *testing.T) {
	ctx, tokens := newContext(&clientMock{})

	var seen []*auth.Identity
	ctx.Subscribe(func(ident *auth.Identity) {
		seen = append(seen, ident)
	})

	token := mintToken(t, jwt.MapClaims{"userId": float64(7), "username": "ana"})
	require.NoError(t, tokens.SetToken(token))
	// Clear through the shared holder, as the API layer does on a 401.
	require.NoError(t, tokens.Clear())

	require.Len(t, seen, 2)
	require.NotNil(t, seen[0])
	require.Equal(t, "ana", seen[0].Username)
	require.Nil(t, seen[1])
}

func TestContext_IdentityRecomputedPerRead(t *testing.T) {
	ctx, tokens := newContext(&clientMock{})

	require.Nil(t, ctx.CurrentIdentity())

	require.NoError(t, tokens.SetToken(mintToken(t, jwt.MapClaims{"userId": float64(7), "username": "ana"})))
	require.Equal(t, "ana", ctx.CurrentIdentity().Username)

	require.NoError(t, tokens.SetToken(mintToken(t, jwt.MapClaims{"userId": float64(8), "username": "ben"})))
	require.Equal(t, "ben", ctx.CurrentIdentity().Username)
}
