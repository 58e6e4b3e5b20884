package profile

import "errors"

var (
	// ErrNoSession indicates the caller has no authenticated session.
	ErrNoSession = errors.New("no session")
	// ErrProfileNotFound indicates the session user has no profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidInput indicates invalid profile input.
	ErrInvalidInput = errors.New("invalid profile input")
)
