package gate

import (
	"context"
	"time"
)

// State is the attempt counter of one client identity.
type State struct {
	Count       int       // Consecutive failed attempts
	LockedUntil time.Time // Zero when not locked
}

// Locked reports whether the identity is locked at the given instant.
// Expiry is evaluated lazily; there is no background unlock timer.
func (s State) Locked(now time.Time) bool {
	return !s.LockedUntil.IsZero() && now.Before(s.LockedUntil)
}

// RetryAfter returns the remaining lockout duration at the given instant.
func (s State) RetryAfter(now time.Time) time.Duration {
	if !s.Locked(now) {
		return 0
	}
	return s.LockedUntil.Sub(now)
}

// Store tracks failed authorization attempts per client identity.
//
// Fail must be atomic per identity: concurrent failures from the same
// identity must not under-count. Implementations return the post-increment
// state so the caller never needs a separate read.
type Store interface {
	// Fail records one failed attempt and locks the identity for lockFor once
	// the count reaches maxAttempts.
	Fail(ctx context.Context, identity string, maxAttempts int, lockFor time.Duration) (State, error)

	// Status returns the current state without mutating it.
	Status(ctx context.Context, identity string) (State, error)

	// Reset clears the state after a successful authorization.
	Reset(ctx context.Context, identity string) error
}
