package session

// IsFull reports whether a joined count has reached capacity. A capacity of
// zero never reports full.
func IsFull(capacity, joined int) bool {
	return capacity > 0 && joined >= capacity
}

// Completed reports whether the session has reached its terminal status.
func (s Session) Completed() bool {
	return s.Status == StatusCompleted
}

// Full reports fullness from the server-supplied joined count. Listing views
// use this; detail views must derive fullness from the roster instead.
func (s Session) Full() bool {
	return IsFull(s.Capacity, s.JoinedCount)
}

// JoinedCount counts the roster.
func (d Detail) JoinedCount() int {
	return len(d.Participants)
}

// Full reports fullness of the snapshot from its roster, never from the
// listing counter.
func (d Detail) Full() bool {
	return IsFull(d.Session.Capacity, d.JoinedCount())
}

// HasParticipant reports whether userID appears on the roster.
func HasParticipant(participants []Participant, userID int64) bool {
	for _, p := range participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
