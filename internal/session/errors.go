package session

import "errors"

// Sentinel errors for the session package.
var (
	// ErrClosed is returned when operations are attempted on a closed session.
	ErrClosed = errors.New("session is closed")

	// ErrInvalidSize is returned when the terminal size is invalid.
	ErrInvalidSize = errors.New("invalid terminal size")

	// ErrShellNotFound is returned when the shell executable is not found.
	ErrShellNotFound = errors.New("shell not found")
)
