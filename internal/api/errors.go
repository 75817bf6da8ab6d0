package api

import (
	"errors"
	"net/http"
)

// StatusError is a non-2xx response from the service, carrying the
// server-supplied message.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// IsStatus reports whether err is a StatusError with the given status code.
func IsStatus(err error, status int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == status
}

// IsUnauthorized reports whether err is an HTTP 401. By the time callers see
// this error the stored token has already been cleared.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// IsNotFound reports whether err is an HTTP 404.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}
