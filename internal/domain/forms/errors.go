package forms

import "errors"

var (
	// ErrInvalidDraft indicates a client-side validation failure. The
	// request is never sent.
	ErrInvalidDraft = errors.New("invalid session draft")
	// ErrBusy indicates a submission is still in flight.
	ErrBusy = errors.New("form is busy")
)
