// Package mcp exposes the study-session coordinators as MCP tools, so an
// MCP host can browse, join, and manage sessions through the same gating and
// reconciliation logic the interactive client uses.
package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tanweijie/studysprint/internal/auth"
	"github.com/tanweijie/studysprint/internal/domain/directory"
	"github.com/tanweijie/studysprint/internal/domain/session"
)

const serverInstructions = `Study Sprint client. Browse upcoming study
sessions, inspect one session's roster and your legal actions on it, and
join, leave, create, edit, complete, or delete sessions. Mutations are
re-validated by the backing service; a 401 answer logs you out.`

// Directory lists and filters upcoming sessions.
type Directory interface {
	Load(ctx context.Context, filter directory.Filter) error
	Sessions() []session.Session
	ModuleOptions() []string
}

// Detail coordinates one session's snapshot and actions.
type Detail interface {
	Load(ctx context.Context, id int64) error
	Snapshot() (session.Detail, error)
	Actions() (session.Actions, error)
	Join(ctx context.Context) error
	Leave(ctx context.Context) error
	Complete(ctx context.Context) error
	Delete(ctx context.Context) error
}

// MySessions lists the sessions the current user has joined.
type MySessions interface {
	Load(ctx context.Context) error
	Sessions() []session.Session
}

// Forms submits create and edit payloads.
type Forms interface {
	Create(ctx context.Context, draft session.Draft) (int64, error)
	LoadForEdit(ctx context.Context, id int64) (session.Draft, error)
	Update(ctx context.Context, id int64, draft session.Draft) error
}

// Identity reads the locally decoded identity.
type Identity interface {
	CurrentIdentity() *auth.Identity
}

// Services contains the coordinators the tools dispatch to.
type Services struct {
	Directory  Directory
	Detail     Detail
	MySessions MySessions
	Forms      Forms
	Identity   Identity
}

// Config contains server configuration.
type Config struct {
	Services Services
	Logger   *slog.Logger
}

// NewServer creates an MCP server with all tools registered.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "studysprint",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerTools(server, cfg.Services)

	return server
}
