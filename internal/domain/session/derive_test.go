package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tanweijie/studysprint/internal/domain/session"
)

func TestIsFull(t *testing.T) {
	require.True(t, session.IsFull(2, 2))
	require.True(t, session.IsFull(2, 3))
	require.False(t, session.IsFull(2, 1))

	// Capacity zero never reports full.
	require.False(t, session.IsFull(0, 0))
	require.False(t, session.IsFull(0, 100))
}

func TestDetail_FullUsesRosterNotCounter(t *testing.T) {
	detail := session.Detail{
		Session: session.Session{
			Capacity:    2,
			JoinedCount: 5, // stale listing counter must be ignored here
		},
		Participants: []session.Participant{{UserID: 1, Username: "ana"}},
	}

	require.Equal(t, 1, detail.JoinedCount())
	require.False(t, detail.Full())

	detail.Participants = append(detail.Participants, session.Participant{UserID: 2, Username: "ben"})
	require.True(t, detail.Full())
}

func TestSession_Full(t *testing.T) {
	listed := session.Session{Capacity: 3, JoinedCount: 3}
	require.True(t, listed.Full())

	listed.JoinedCount = 2
	require.False(t, listed.Full())
}

func TestSession_Completed(t *testing.T) {
	require.True(t, session.Session{Status: session.StatusCompleted}.Completed())
	require.False(t, session.Session{Status: session.StatusScheduled}.Completed())
}

func TestHasParticipant(t *testing.T) {
	roster := []session.Participant{
		{UserID: 7, Username: "ana"},
		{UserID: 9, Username: "ben"},
	}
	require.True(t, session.HasParticipant(roster, 9))
	require.False(t, session.HasParticipant(roster, 8))
	require.False(t, session.HasParticipant(nil, 7))
}
