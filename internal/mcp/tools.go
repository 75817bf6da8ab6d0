package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tanweijie/studysprint/internal/domain/directory"
	"github.com/tanweijie/studysprint/internal/domain/session"
)

type listSessionsInput struct {
	Module string `json:"module,omitempty"`
	Date   string `json:"date,omitempty"`
}

type sessionIDInput struct {
	ID int64 `json:"id"`
}

type draftInput struct {
	Title    string `json:"title"`
	Module   string `json:"module"`
	Venue    string `json:"venue"`
	Datetime string `json:"datetime"`
	Capacity int    `json:"capacity"`
}

type updateSessionInput struct {
	ID       int64  `json:"id"`
	Title    string `json:"title,omitempty"`
	Module   string `json:"module,omitempty"`
	Venue    string `json:"venue,omitempty"`
	Datetime string `json:"datetime,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
}

type emptyInput struct{}

type detailOutput struct {
	Session      session.Session       `json:"session"`
	Participants []session.Participant `json:"participants"`
	JoinedCount  int                   `json:"joined_count"`
	Full         bool                  `json:"full"`
	Actions      session.Actions       `json:"actions"`
}

func registerTools(server *sdkmcp.Server, svcs Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_sessions",
		Description: "List upcoming study sessions, optionally filtered by module code and ISO date (YYYY-MM-DD). Also returns the module options present in the filtered result set.",
		Annotations: &sdkmcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in listSessionsInput) (*sdkmcp.CallToolResult, any, error) {
		if err := svcs.Directory.Load(ctx, directory.Filter{Module: in.Module, Date: in.Date}); err != nil {
			return errorResult(err), nil, nil
		}
		return jsonResult(map[string]any{
			"sessions":       svcs.Directory.Sessions(),
			"module_options": svcs.Directory.ModuleOptions(),
		})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_session",
		Description: "Get one session with its participant roster and the actions the current user may take on it.",
		Annotations: &sdkmcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in sessionIDInput) (*sdkmcp.CallToolResult, any, error) {
		if err := svcs.Detail.Load(ctx, in.ID); err != nil {
			return errorResult(err), nil, nil
		}
		return snapshotResult(svcs.Detail)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "my_sessions",
		Description: "List the study sessions the current user has joined.",
		Annotations: &sdkmcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, any, error) {
		if err := svcs.MySessions.Load(ctx); err != nil {
			return errorResult(err), nil, nil
		}
		return jsonResult(svcs.MySessions.Sessions())
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "whoami",
		Description: "Show the identity decoded from the stored token, if any. Advisory only.",
		Annotations: &sdkmcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, any, error) {
		ident := svcs.Identity.CurrentIdentity()
		if ident == nil {
			return textResult("not logged in"), nil, nil
		}
		return jsonResult(map[string]any{
			"user_id":  ident.UserID,
			"username": ident.Username,
			"expires":  ident.ExpiresAt,
		})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "join_session",
		Description: "Join a session. Refused by the service when the session is full or completed.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in sessionIDInput) (*sdkmcp.CallToolResult, any, error) {
		return mutateResult(ctx, svcs.Detail, in.ID, svcs.Detail.Join)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "leave_session",
		Description: "Leave a session the current user has joined. Always permitted on a non-completed session, even a full one.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in sessionIDInput) (*sdkmcp.CallToolResult, any, error) {
		return mutateResult(ctx, svcs.Detail, in.ID, svcs.Detail.Leave)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "complete_session",
		Description: "Mark a session COMPLETED. Creator only; the status is terminal.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in sessionIDInput) (*sdkmcp.CallToolResult, any, error) {
		return mutateResult(ctx, svcs.Detail, in.ID, svcs.Detail.Complete)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_session",
		Description: "Delete a session. Creator only.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in sessionIDInput) (*sdkmcp.CallToolResult, any, error) {
		if err := svcs.Detail.Load(ctx, in.ID); err != nil {
			return errorResult(err), nil, nil
		}
		if err := svcs.Detail.Delete(ctx); err != nil {
			return errorResult(err), nil, nil
		}
		return textResult("session deleted"), nil, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_session",
		Description: "Create a study session. All fields are required; capacity must be at least 1. Datetime uses the 2006-01-02T15:04 format.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in draftInput) (*sdkmcp.CallToolResult, any, error) {
		id, err := svcs.Forms.Create(ctx, session.Draft{
			Title:    in.Title,
			Module:   in.Module,
			Venue:    in.Venue,
			Datetime: in.Datetime,
			Capacity: in.Capacity,
		})
		if err != nil {
			return errorResult(err), nil, nil
		}
		return jsonResult(map[string]any{"id": id})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_session",
		Description: "Edit a session the current user created. Omitted fields keep their current values.",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in updateSessionInput) (*sdkmcp.CallToolResult, any, error) {
		draft, err := svcs.Forms.LoadForEdit(ctx, in.ID)
		if err != nil {
			return errorResult(err), nil, nil
		}
		if in.Title != "" {
			draft.Title = in.Title
		}
		if in.Module != "" {
			draft.Module = in.Module
		}
		if in.Venue != "" {
			draft.Venue = in.Venue
		}
		if in.Datetime != "" {
			draft.Datetime = in.Datetime
		}
		if in.Capacity != 0 {
			draft.Capacity = in.Capacity
		}
		if err := svcs.Forms.Update(ctx, in.ID, draft); err != nil {
			return errorResult(err), nil, nil
		}
		return textResult("session updated"), nil, nil
	})
}

// mutateResult applies a detail-view mutation and returns the reconciled
// snapshot the view reloaded afterward.
func mutateResult(ctx context.Context, det Detail, id int64, action func(context.Context) error) (*sdkmcp.CallToolResult, any, error) {
	if err := det.Load(ctx, id); err != nil {
		return errorResult(err), nil, nil
	}
	if err := action(ctx); err != nil {
		return errorResult(err), nil, nil
	}
	return snapshotResult(det)
}

func snapshotResult(det Detail) (*sdkmcp.CallToolResult, any, error) {
	snap, err := det.Snapshot()
	if err != nil {
		return errorResult(err), nil, nil
	}
	actions, err := det.Actions()
	if err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(detailOutput{
		Session:      snap.Session,
		Participants: snap.Participants,
		JoinedCount:  snap.JoinedCount(),
		Full:         snap.Full(),
		Actions:      actions,
	})
}

func jsonResult(out any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(string(data)), nil, nil
}

func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}},
	}
}

// errorResult reports a tool failure in-band, per MCP convention.
func errorResult(err error) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: "Error: " + err.Error()}},
		IsError: true,
	}
}
