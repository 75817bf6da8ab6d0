package mysessions

import "errors"

var (
	// ErrBusy indicates another operation on this view is still in flight.
	ErrBusy = errors.New("my-sessions view is busy")
	// ErrSessionCompleted indicates a leave attempt on a COMPLETED session.
	// This is the only view where leaving is gated by completion.
	ErrSessionCompleted = errors.New("session is completed")
)
