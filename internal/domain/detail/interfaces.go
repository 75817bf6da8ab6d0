package detail

import (
	"context"

	"github.com/tanweijie/studysprint/internal/auth"
	"github.com/tanweijie/studysprint/internal/domain/session"
)

// Gateway is the slice of the API client the detail view consumes.
type Gateway interface {
	GetSession(ctx context.Context, id int64) (session.Detail, error)
	JoinSession(ctx context.Context, id int64) error
	LeaveSession(ctx context.Context, id int64) error
	CompleteSession(ctx context.Context, id int64) error
	DeleteSession(ctx context.Context, id int64) error
}

// Auth supplies the decoded identity used for action gating.
type Auth interface {
	CurrentIdentity() *auth.Identity
	IsAuthenticated() bool
}

// Navigator routes the user to another view.
type Navigator interface {
	Navigate(path string)
}
