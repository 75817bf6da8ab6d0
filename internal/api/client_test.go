package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tanweijie/studysprint/internal/api"
	"github.com/tanweijie/studysprint/internal/auth"
	"github.com/tanweijie/studysprint/internal/domain/session"
)

func newClient(t *testing.T, handler http.Handler) (*api.Client, *auth.Tokens) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	tokens := auth.NewTokens(&auth.MemoryStore{})
	return api.New(srv.URL, 5*time.Second, tokens, nil), tokens
}

func TestClient_AttachesBearerAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID string
	client, tokens := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-Id")
		w.Write([]byte(`[]`))
	}))
	require.NoError(t, tokens.SetToken("tok-123"))

	_, err := client.ListSessions(context.Background(), "", "")
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-123", gotAuth)
	require.NotEmpty(t, gotRequestID)
}

func TestClient_NoBearerWithoutToken(t *testing.T) {
	var gotAuth string
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))

	_, err := client.ListSessions(context.Background(), "", "")
	require.NoError(t, err)
	require.Empty(t, gotAuth)
}

func TestClient_UnauthorizedClearsToken(t *testing.T) {
	client, tokens := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Token expired"})
	}))
	require.NoError(t, tokens.SetToken("stale"))

	_, err := client.MySessions(context.Background())
	require.Error(t, err)
	require.True(t, api.IsUnauthorized(err))
	require.Empty(t, tokens.Token())

	var statusErr *api.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, "Token expired", statusErr.Message)
}

func TestClient_ErrorMessageFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error field", `{"error":"Session is full"}`, "Session is full"},
		{"message field", `{"message":"Already joined"}`, "Already joined"},
		{"error wins over message", `{"error":"a","message":"b"}`, "a"},
		{"raw body", `upstream exploded`, "upstream exploded"},
		{"empty body", ``, "HTTP 409"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte(tt.body))
			}))

			err := client.JoinSession(context.Background(), 1)
			var statusErr *api.StatusError
			require.ErrorAs(t, err, &statusErr)
			require.Equal(t, http.StatusConflict, statusErr.Status)
			require.Equal(t, tt.want, statusErr.Message)
		})
	}
}

func TestClient_QueryFilters(t *testing.T) {
	var gotQuery string
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))

	_, err := client.ListSessions(context.Background(), "CS1010", "2026-09-01")
	require.NoError(t, err)
	require.Contains(t, gotQuery, "module=CS1010")
	require.Contains(t, gotQuery, "date=2026-09-01")
}

func TestClient_GetSessionDecodesSnapshot(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sessions/42", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"session": map[string]any{
				"id":               42,
				"title":            "Graph algorithms",
				"capacity":         3,
				"status":           "SCHEDULED",
				"creator_username": "carol",
			},
			"participants": []map[string]any{
				{"user_id": 7, "username": "ana"},
			},
		})
	}))

	detail, err := client.GetSession(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), detail.Session.ID)
	require.Equal(t, "carol", detail.Session.CreatorUsername)
	require.Equal(t, []session.Participant{{UserID: 7, Username: "ana"}}, detail.Participants)
}

func TestClient_CreateSessionReturnsID(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var draft session.Draft
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		require.Equal(t, "Graph algorithms", draft.Title)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"message": "Session created", "id": 77})
	}))

	id, err := client.CreateSession(context.Background(), session.Draft{
		Title: "Graph algorithms", Module: "CS2040", Venue: "COM1", Datetime: "2026-09-01T14:30", Capacity: 3,
	})
	require.NoError(t, err)
	require.Equal(t, int64(77), id)
}

func TestClient_EmptySuccessBodyTolerated(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, client.DeleteSession(context.Background(), 42))
}

func TestClient_Login(t *testing.T) {
	client, _ := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/login", r.URL.Path)
		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "hunter22" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "tok-abc"})
	}))

	token, err := client.Login(context.Background(), "ana", "hunter22")
	require.NoError(t, err)
	require.Equal(t, "tok-abc", token)

	_, err = client.Login(context.Background(), "ana", "wrong")
	require.True(t, api.IsUnauthorized(err))
}
