package vault

import "errors"

var (
	// ErrNotFound indicates the referenced credential id is absent.
	ErrNotFound = errors.New("credential not found")

	// ErrEmptyLabel indicates a manual entry with a blank label.
	ErrEmptyLabel = errors.New("label cannot be empty")

	// ErrLabelMismatch indicates a delete confirmation that does not echo the
	// record's current label. Distinct from ErrNotFound so clients can show a
	// targeted message.
	ErrLabelMismatch = errors.New("label confirmation does not match")

	// ErrInvalidID indicates a malformed credential id.
	ErrInvalidID = errors.New("invalid credential id")

	// ErrStoreUnavailable indicates a persistence failure. Details are logged
	// server-side; callers only see a generic internal failure.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)
