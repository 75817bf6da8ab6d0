package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tanweijie/studysprint/internal/domain/session"
)

// TokenSource provides the bearer token for authenticated requests. Clear is
// invoked by the shared response handler whenever the service answers 401,
// regardless of which call triggered it.
type TokenSource interface {
	Token() string
	Clear() error
}

// Client is a typed client for the Study Sprint service API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger
}

// New creates a client for the service at baseURL.
func New(baseURL string, timeout time.Duration, tokens TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger,
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type createResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// Register creates an account. It does not log the user in.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, "/register", nil, credentials{username, password}, &resp)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	return resp.Message, nil
}

// Login exchanges credentials for a bearer token. Persisting the token is the
// auth context's concern, not the client's.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/login", nil, credentials{username, password}, &resp)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return resp.Token, nil
}

// ListSessions fetches upcoming sessions, optionally filtered by module and
// ISO date. Order is server-defined and preserved.
func (c *Client) ListSessions(ctx context.Context, module, date string) ([]session.Session, error) {
	query := url.Values{}
	if module != "" {
		query.Set("module", module)
	}
	if date != "" {
		query.Set("date", date)
	}

	var sessions []session.Session
	if err := c.do(ctx, http.MethodGet, "/sessions", query, nil, &sessions); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// GetSession fetches one session together with its participant roster as an
// atomic snapshot.
func (c *Client) GetSession(ctx context.Context, id int64) (session.Detail, error) {
	var detail session.Detail
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/sessions/%d", id), nil, nil, &detail); err != nil {
		return session.Detail{}, fmt.Errorf("get session %d: %w", id, err)
	}
	return detail, nil
}

// CreateSession submits a new session and returns the server-issued id.
func (c *Client) CreateSession(ctx context.Context, draft session.Draft) (int64, error) {
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, draft, &resp); err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	return resp.ID, nil
}

// UpdateSession replaces the editable fields of a session.
func (c *Client) UpdateSession(ctx context.Context, id int64, draft session.Draft) error {
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/sessions/%d", id), nil, draft, nil); err != nil {
		return fmt.Errorf("update session %d: %w", id, err)
	}
	return nil
}

// DeleteSession removes a session.
func (c *Client) DeleteSession(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/sessions/%d", id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	return nil
}

// CompleteSession marks a session COMPLETED. The status is terminal.
func (c *Client) CompleteSession(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/sessions/%d/complete", id), nil, nil, nil); err != nil {
		return fmt.Errorf("complete session %d: %w", id, err)
	}
	return nil
}

// JoinSession adds the caller to a session's roster.
func (c *Client) JoinSession(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/sessions/%d/join", id), nil, nil, nil); err != nil {
		return fmt.Errorf("join session %d: %w", id, err)
	}
	return nil
}

// LeaveSession removes the caller from a session's roster.
func (c *Client) LeaveSession(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/sessions/%d/leave", id), nil, nil, nil); err != nil {
		return fmt.Errorf("leave session %d: %w", id, err)
	}
	return nil
}

// MySessions fetches the sessions the caller has joined.
func (c *Client) MySessions(ctx context.Context) ([]session.Session, error) {
	var sessions []session.Session
	if err := c.do(ctx, http.MethodGet, "/me/sessions", nil, nil, &sessions); err != nil {
		return nil, fmt.Errorf("my sessions: %w", err)
	}
	return sessions, nil
}

// do issues one request and applies the shared response-handling contract:
// bearer attach when a token is held, token clearing on any 401, and the
// error-message fallback chain for non-2xx responses.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Token missing or expired. Clearing here, in the one shared
		// handler, keeps the side effect uniform across call sites.
		if clearErr := c.tokens.Clear(); clearErr != nil {
			c.logger.Warn("failed to clear stored token", "error", clearErr)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("request rejected",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"request_id", requestID,
		)
		return &StatusError{
			Status:  resp.StatusCode,
			Message: errorMessage(text, resp.StatusCode),
		}
	}

	if out == nil || len(text) == 0 {
		return nil
	}
	if err := json.Unmarshal(text, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the most specific message available from a failure
// body: the server's "error" field, then "message", then the raw body text,
// then the bare status.
func errorMessage(body []byte, status int) string {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}
