package session

// Status represents the lifecycle status of a study session. COMPLETED is
// terminal: the service refuses further joins, leaves, and edits, and the
// client mirrors that for action gating only.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusCompleted Status = "COMPLETED"
)

// Session is a scheduled study session as reported by the service. Copies
// held by the client are ephemeral and possibly stale; they are never used to
// decide a mutation, only to gate what the user is offered.
//
// JoinedCount is assigned by the listing endpoints (/sessions, /me/sessions).
// The detail endpoint reports membership through the participant roster
// instead, and the two counts are deliberately kept as distinct sources.
type Session struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Module          string `json:"module"`
	Venue           string `json:"venue"`
	Datetime        string `json:"datetime"`
	Capacity        int    `json:"capacity"`
	Status          Status `json:"status"`
	CreatorUsername string `json:"creator_username"`
	JoinedCount     int    `json:"joined_count"`
}

// Participant is a membership record linking a user to a session. A user_id
// appears at most once per roster.
type Participant struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Detail is the atomic snapshot returned by the detail endpoint.
type Detail struct {
	Session      Session       `json:"session"`
	Participants []Participant `json:"participants"`
}

// Draft holds the editable fields submitted on create and update.
type Draft struct {
	Title    string `json:"title"`
	Module   string `json:"module"`
	Venue    string `json:"venue"`
	Datetime string `json:"datetime"`
	Capacity int    `json:"capacity"`
}
