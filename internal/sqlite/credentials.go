package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// CredentialStore persists the bearer token across client invocations. It is
// the process-wide token storage: set at login, cleared at logout or when
// any API call answers 401.
type CredentialStore struct {
	db     *DB
	logger *slog.Logger
}

// NewCredentialStore creates the store and its schema.
func NewCredentialStore(db *DB, logger *slog.Logger) (*CredentialStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS credentials (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			token TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create credentials table: %w", err)
	}

	return &CredentialStore{db: db, logger: logger}, nil
}

// Token returns the stored token, or "" when none is held. Read errors are
// logged and reported as "no token": callers treat a missing token as the
// guest state, which is the safe degradation either way.
func (s *CredentialStore) Token() string {
	var token string
	err := s.db.QueryRow(`SELECT token FROM credentials WHERE id = 1`).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return ""
	}
	if err != nil {
		s.logger.Warn("failed to read stored token", "error", err)
		return ""
	}
	return token
}

// SetToken stores token, replacing any previous one.
func (s *CredentialStore) SetToken(token string) error {
	query := `
		INSERT INTO credentials (id, token, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, token, time.Now()); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Clear drops the stored token.
func (s *CredentialStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM credentials WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
