package detail

import "errors"

var (
	// ErrBusy indicates another action on this view is still in flight.
	ErrBusy = errors.New("detail view is busy")
	// ErrNotLoaded indicates snapshot access before a successful load.
	ErrNotLoaded = errors.New("session detail not loaded")
	// ErrNotCreator indicates a creator-only action by a non-creator.
	ErrNotCreator = errors.New("only the creator may do this")
)
