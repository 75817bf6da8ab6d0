package directory

import "errors"

// ErrBusy indicates another directory operation is still in flight. A soft
// debounce, not a correctness guarantee: the service is the arbiter of final
// state either way.
var ErrBusy = errors.New("directory is busy")
