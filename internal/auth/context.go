package auth

import (
	"context"
	"fmt"
	"log/slog"
)

// Client is the slice of the API surface the auth context needs.
type Client interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, password string) (string, error)
}

// Context owns the auth lifecycle: login persists the token, logout clears
// it, and identity is recomputed from the stored token on every read rather
// than cached. Consumers subscribe for changes instead of polling.
type Context struct {
	client Client
	tokens *Tokens
	logger *slog.Logger
}

// NewContext creates the auth context around a shared token holder.
func NewContext(client Client, tokens *Tokens, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Context{
		client: client,
		tokens: tokens,
		logger: logger,
	}
}

// Login exchanges credentials for a token, persists it, and returns it.
func (c *Context) Login(ctx context.Context, username, password string) (string, error) {
	token, err := c.client.Login(ctx, username, password)
	if err != nil {
		return "", err
	}
	if err := c.tokens.SetToken(token); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	c.logger.Info("logged in", "username", username)
	return token, nil
}

// Register creates an account after local advisory checks: the confirmation
// must match and the password must be at least 6 characters. Neither check
// reaches the network when it fails, and registering never logs in.
func (c *Context) Register(ctx context.Context, username, password, confirm string) (string, error) {
	if password != confirm {
		return "", ErrPasswordMismatch
	}
	if len(password) < 6 {
		return "", ErrPasswordTooShort
	}
	return c.client.Register(ctx, username, password)
}

// Logout clears the stored token.
func (c *Context) Logout() error {
	if err := c.tokens.Clear(); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	c.logger.Info("logged out")
	return nil
}

// CurrentIdentity decodes the stored token. Nil when no token is held or the
// token is malformed; it never fails.
func (c *Context) CurrentIdentity() *Identity {
	return DecodeIdentity(c.tokens.Token())
}

// IsAuthenticated reports whether a decodable token is held.
func (c *Context) IsAuthenticated() bool {
	return c.CurrentIdentity() != nil
}

// Subscribe runs fn with the identity derived from the token after every
// token change, including clears performed by the API layer on 401.
func (c *Context) Subscribe(fn func(*Identity)) {
	c.tokens.Subscribe(func() {
		fn(c.CurrentIdentity())
	})
}
