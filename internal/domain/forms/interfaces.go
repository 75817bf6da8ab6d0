package forms

import (
	"context"

	"github.com/tanweijie/studysprint/internal/domain/session"
)

// Gateway is the slice of the API client the forms consume.
type Gateway interface {
	GetSession(ctx context.Context, id int64) (session.Detail, error)
	CreateSession(ctx context.Context, draft session.Draft) (int64, error)
	UpdateSession(ctx context.Context, id int64, draft session.Draft) error
}

// Auth reports the current authentication state.
type Auth interface {
	IsAuthenticated() bool
}

// Navigator routes the user to another view.
type Navigator interface {
	Navigate(path string)
}
