package documents

import "errors"

var (
	// ErrNotFound indicates no document exists with the given id.
	ErrNotFound = errors.New("document not found")
	// ErrForbidden indicates the document exists but belongs to another user.
	ErrForbidden = errors.New("access denied")
	// ErrInvalidInput indicates a malformed request.
	ErrInvalidInput = errors.New("invalid input")
)
