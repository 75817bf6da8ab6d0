// Package testserver runs an in-memory stand-in for the Study Sprint
// service, implementing the API contract the client is written against:
// bearer auth, the two joined-count reporting paths, and the business rules
// for join/leave/edit/complete/delete.
package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/tanweijie/studysprint/internal/domain/session"
)

var signingKey = []byte("testserver-secret")

type user struct {
	id       int64
	username string
	password string
}

type storedSession struct {
	session.Session
	creatorID int64
	roster    []session.Participant
}

// TestServer is the fake service plus handles for seeding state directly.
type TestServer struct {
	Server *httptest.Server

	mu            sync.Mutex
	users         map[string]*user
	sessions      map[int64]*storedSession
	nextUserID    int64
	nextSessionID int64
}

// New starts the fake service and registers cleanup with t.
func New(t *testing.T) *TestServer {
	t.Helper()

	ts := &TestServer{
		users:    make(map[string]*user),
		sessions: make(map[int64]*storedSession),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", ts.handleRegister)
	mux.HandleFunc("POST /login", ts.handleLogin)
	mux.HandleFunc("GET /sessions", ts.handleList)
	mux.HandleFunc("GET /sessions/{id}", ts.handleGet)
	mux.HandleFunc("POST /sessions", ts.handleCreate)
	mux.HandleFunc("PUT /sessions/{id}", ts.handleUpdate)
	mux.HandleFunc("DELETE /sessions/{id}", ts.handleDelete)
	mux.HandleFunc("PUT /sessions/{id}/complete", ts.handleComplete)
	mux.HandleFunc("POST /sessions/{id}/join", ts.handleJoin)
	mux.HandleFunc("DELETE /sessions/{id}/leave", ts.handleLeave)
	mux.HandleFunc("GET /me/sessions", ts.handleMySessions)

	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Server.Close)

	return ts
}

// URL is the base URL of the fake service.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

// MustRegister seeds an account directly.
func (ts *TestServer) MustRegister(t *testing.T, username, password string) int64 {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	id, err := ts.addUser(username, password)
	require.NoError(t, err)
	return id
}

// MintToken issues a token the fake service will accept. A negative ttl
// produces an expired token, which every authenticated endpoint rejects
// with 401.
func (ts *TestServer) MintToken(t *testing.T, userID int64, username string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"userId":   userID,
		"username": username,
		"exp":      time.Now().Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	require.NoError(t, err)
	return token
}

// Seed inserts a session owned by creator and returns its id.
func (ts *TestServer) Seed(t *testing.T, creator string, draft session.Draft, status session.Status) int64 {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()

	owner, ok := ts.users[creator]
	require.True(t, ok, "unknown creator %q", creator)

	ts.nextSessionID++
	id := ts.nextSessionID
	ts.sessions[id] = &storedSession{
		Session: session.Session{
			ID:              id,
			Title:           draft.Title,
			Module:          draft.Module,
			Venue:           draft.Venue,
			Datetime:        draft.Datetime,
			Capacity:        draft.Capacity,
			Status:          status,
			CreatorUsername: creator,
		},
		creatorID: owner.id,
	}
	return id
}

// AddParticipant puts an existing user on a session's roster directly.
func (ts *TestServer) AddParticipant(t *testing.T, sessionID int64, username string) {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()

	sess, ok := ts.sessions[sessionID]
	require.True(t, ok, "unknown session %d", sessionID)
	member, ok := ts.users[username]
	require.True(t, ok, "unknown user %q", username)
	sess.roster = append(sess.roster, session.Participant{UserID: member.id, Username: member.username})
}

func (ts *TestServer) addUser(username, password string) (int64, error) {
	if _, exists := ts.users[username]; exists {
		return 0, fmt.Errorf("username taken")
	}
	ts.nextUserID++
	ts.users[username] = &user{id: ts.nextUserID, username: username, password: password}
	return ts.nextUserID, nil
}

func (ts *TestServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	ts.mu.Lock()
	_, err := ts.addUser(creds.Username, creds.Password)
	ts.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusConflict, "Username already exists")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered"})
}

func (ts *TestServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	ts.mu.Lock()
	account, ok := ts.users[creds.Username]
	ts.mu.Unlock()
	if !ok || account.password != creds.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	claims := jwt.MapClaims{
		"userId":   account.id,
		"username": account.username,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (ts *TestServer) handleList(w http.ResponseWriter, r *http.Request) {
	module := r.URL.Query().Get("module")
	date := r.URL.Query().Get("date")

	ts.mu.Lock()
	out := make([]session.Session, 0, len(ts.sessions))
	for _, sess := range ts.sessions {
		if module != "" && sess.Module != module {
			continue
		}
		if date != "" && !strings.HasPrefix(sess.Datetime, date) {
			continue
		}
		listed := sess.Session
		listed.JoinedCount = len(sess.roster)
		out = append(out, listed)
	}
	ts.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (ts *TestServer) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	sess, ok := ts.sessions[id]
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	// The detail path reports membership through the roster only; the
	// joined_count field stays unset on this endpoint.
	roster := make([]session.Participant, len(sess.roster))
	copy(roster, sess.roster)
	writeJSON(w, http.StatusOK, session.Detail{
		Session:      sess.Session,
		Participants: roster,
	})
}

func (ts *TestServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := ts.authenticate(w, r)
	if !ok {
		return
	}

	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}

	ts.mu.Lock()
	ts.nextSessionID++
	id := ts.nextSessionID
	ts.sessions[id] = &storedSession{
		Session: session.Session{
			ID:              id,
			Title:           draft.Title,
			Module:          draft.Module,
			Venue:           draft.Venue,
			Datetime:        draft.Datetime,
			Capacity:        draft.Capacity,
			Status:          session.StatusScheduled,
			CreatorUsername: caller.username,
		},
		creatorID: caller.id,
	}
	ts.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Session created", "id": id})
}

func (ts *TestServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := ts.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	sess, found := ts.sessions[id]
	switch {
	case !found:
		writeError(w, http.StatusNotFound, "Session not found")
	case sess.creatorID != caller.id:
		writeError(w, http.StatusForbidden, "Only the creator can edit this session")
	case sess.Completed():
		writeError(w, http.StatusBadRequest, "Session already completed")
	default:
		sess.Title = draft.Title
		sess.Module = draft.Module
		sess.Venue = draft.Venue
		sess.Datetime = draft.Datetime
		sess.Capacity = draft.Capacity
		writeJSON(w, http.StatusOK, map[string]string{"message": "Session updated"})
	}
}

func (ts *TestServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := ts.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	sess, found := ts.sessions[id]
	switch {
	case !found:
		writeError(w, http.StatusNotFound, "Session not found")
	case sess.creatorID != caller.id:
		writeError(w, http.StatusForbidden, "Only the creator can delete this session")
	default:
		delete(ts.sessions, id)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Session deleted"})
	}
}

func (ts *TestServer) handleComplete(w http.ResponseWriter, r *http.Request) {
	caller, ok := ts.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	sess, found := ts.sessions[id]
	switch {
	case !found:
		writeError(w, http.StatusNotFound, "Session not found")
	case sess.creatorID != caller.id:
		writeError(w, http.StatusForbidden, "Only the creator can complete this session")
	case sess.Completed():
		writeError(w, http.StatusBadRequest, "Session already completed")
	default:
		sess.Status = session.StatusCompleted
		writeJSON(w, http.StatusOK, map[string]string{"message": "Session completed"})
	}
}

func (ts *TestServer) handleJoin(w http.ResponseWriter, r *http.Request) {
	caller, ok := ts.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	sess, found := ts.sessions[id]
	switch {
	case !found:
		writeError(w, http.StatusNotFound, "Session not found")
	case sess.Completed():
		writeError(w, http.StatusBadRequest, "Session already completed")
	case session.HasParticipant(sess.roster, caller.id):
		writeError(w, http.StatusConflict, "Already joined")
	case session.IsFull(sess.Capacity, len(sess.roster)):
		writeError(w, http.StatusConflict, "Session is full")
	default:
		sess.roster = append(sess.roster, session.Participant{UserID: caller.id, Username: caller.username})
		writeJSON(w, http.StatusOK, map[string]string{"message": "Joined session"})
	}
}

func (ts *TestServer) handleLeave(w http.ResponseWriter, r *http.Request) {
	caller, ok := ts.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	sess, found := ts.sessions[id]
	switch {
	case !found:
		writeError(w, http.StatusNotFound, "Session not found")
	case sess.Completed():
		writeError(w, http.StatusBadRequest, "Session already completed")
	case !session.HasParticipant(sess.roster, caller.id):
		writeError(w, http.StatusBadRequest, "Not a participant")
	default:
		kept := sess.roster[:0]
		for _, p := range sess.roster {
			if p.UserID != caller.id {
				kept = append(kept, p)
			}
		}
		sess.roster = kept
		writeJSON(w, http.StatusOK, map[string]string{"message": "Left session"})
	}
}

func (ts *TestServer) handleMySessions(w http.ResponseWriter, r *http.Request) {
	caller, ok := ts.authenticate(w, r)
	if !ok {
		return
	}

	ts.mu.Lock()
	out := make([]session.Session, 0)
	for _, sess := range ts.sessions {
		if session.HasParticipant(sess.roster, caller.id) {
			listed := sess.Session
			listed.JoinedCount = len(sess.roster)
			out = append(out, listed)
		}
	}
	ts.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (ts *TestServer) authenticate(w http.ResponseWriter, r *http.Request) (*user, bool) {
	header := r.Header.Get("Authorization")
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "Missing token")
		return nil, false
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return signingKey, nil
	})
	if err != nil || !token.Valid {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return nil, false
	}
	username, _ := claims["username"].(string)

	ts.mu.Lock()
	account, exists := ts.users[username]
	ts.mu.Unlock()
	if !exists {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return nil, false
	}
	return account, true
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (session.Draft, bool) {
	var draft session.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return session.Draft{}, false
	}
	if draft.Title == "" || draft.Module == "" || draft.Venue == "" || draft.Datetime == "" || draft.Capacity < 1 {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return session.Draft{}, false
	}
	return draft, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
