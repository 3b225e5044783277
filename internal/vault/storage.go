package vault

import (
	"context"
	"time"
)

// Storage is the contract the vault service requires from the persistence
// collaborator. Implementations must return ErrNotFound for absent ids or
// labels, ErrInvalidID for unparseable ids, and wrap any backend failure with
// ErrStoreUnavailable. All writes are single-document and all-or-nothing.
type Storage interface {
	// FindByID returns the record with the given opaque id.
	FindByID(ctx context.Context, id string) (Record, error)

	// FindByLabel returns the record with the given label.
	FindByLabel(ctx context.Context, label string) (Record, error)

	// List returns all records sorted by UpdatedAt descending.
	List(ctx context.Context) ([]Record, error)

	// Upsert inserts or overwrites the record keyed by its label.
	Upsert(ctx context.Context, rec Record) error

	// UpdateNote replaces the note and refreshes the timestamp of the record
	// with the given id.
	UpdateNote(ctx context.Context, id, note string, at time.Time) error

	// Delete removes the record with the given id.
	Delete(ctx context.Context, id string) error
}
