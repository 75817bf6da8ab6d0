package mysessions

import (
	"context"

	"github.com/tanweijie/studysprint/internal/domain/session"
)

// Gateway is the slice of the API client this view consumes.
type Gateway interface {
	MySessions(ctx context.Context) ([]session.Session, error)
	LeaveSession(ctx context.Context, id int64) error
}

// Auth reports the current authentication state.
type Auth interface {
	IsAuthenticated() bool
}

// Navigator routes the user to another view.
type Navigator interface {
	Navigate(path string)
}

// Confirmer is the human-in-the-loop gate asked before leaving a session.
type Confirmer interface {
	Confirm(prompt string) bool
}
