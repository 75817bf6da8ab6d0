package auth

import "errors"

var (
	// ErrLoginRequired indicates a guest attempted an authenticated action.
	ErrLoginRequired = errors.New("login required")
	// ErrPasswordMismatch indicates the confirmation did not match.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrPasswordTooShort indicates the password fails the minimum length.
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)
