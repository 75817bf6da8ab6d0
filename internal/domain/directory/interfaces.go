package directory

import (
	"context"

	"github.com/tanweijie/studysprint/internal/domain/session"
)

// Gateway is the slice of the API client the directory consumes.
type Gateway interface {
	ListSessions(ctx context.Context, module, date string) ([]session.Session, error)
	JoinSession(ctx context.Context, id int64) error
	LeaveSession(ctx context.Context, id int64) error
}

// Auth reports the current authentication state. Re-reading it after a
// failed mutation is how the directory detects that a 401 cleared the token.
type Auth interface {
	IsAuthenticated() bool
}

// Navigator routes the user to another view.
type Navigator interface {
	Navigate(path string)
}
