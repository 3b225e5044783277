package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

var (
	// ErrUnauthorized indicates a failed or missing credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStoreUnavailable indicates the attempt store backend failed. The
	// gate fails closed in that case.
	ErrStoreUnavailable = errors.New("attempt store unavailable")

	// ErrNoCredentialConfigured indicates neither a password nor a hash is set.
	ErrNoCredentialConfigured = errors.New("no app password configured")

	// ErrInvalidPasswordHash indicates APP_PASSWORD_BCRYPT is not a bcrypt hash.
	ErrInvalidPasswordHash = errors.New("invalid bcrypt password hash")
)

// RateLimitedError is returned while an identity is locked out. RetryAfter
// carries the remaining lockout so callers can hint when to come back.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many failed attempts, try again in %d seconds", e.Seconds())
}

// Seconds returns the remaining lockout in seconds, rounded up.
func (e *RateLimitedError) Seconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

// Gate is the authorization check guarding every vault operation: a shared
// password verified per request, with a progressive per-identity lockout.
//
// Per identity the state machine is OPEN or LOCKED(until). Failures increment
// the counter and the failure that reaches MaxAttempts locks the identity.
// Lock expiry is evaluated lazily on the next request; success resets the
// counter to zero.
type Gate struct {
	store       Store
	verifier    Verifier
	maxAttempts int
	lockFor     time.Duration
	log         *slog.Logger
	now         func() time.Time
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// New creates a Gate from the config, the attempt store, and the credential
// verifier.
func New(cfg Config, store Store, verifier Verifier, log *slog.Logger, opts ...GateOption) *Gate {
	g := &Gate{
		store:       store,
		verifier:    verifier,
		maxAttempts: cfg.MaxAttempts,
		lockFor:     cfg.LockoutDuration,
		log:         log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize checks the credential presented by the identity.
//
// Returns nil on success (resetting the failure counter), *RateLimitedError
// while the identity is locked, ErrUnauthorized on a bad credential, and an
// error wrapping ErrStoreUnavailable when the attempt store itself fails.
func (g *Gate) Authorize(ctx context.Context, identity, credential string) error {
	now := g.now()

	st, err := g.store.Status(ctx, identity)
	if err != nil {
		return err
	}
	if st.Locked(now) {
		return &RateLimitedError{RetryAfter: st.RetryAfter(now)}
	}

	if !g.verifier.Verify(credential) {
		st, err := g.store.Fail(ctx, identity, g.maxAttempts, g.lockFor)
		if err != nil {
			return err
		}
		if st.Locked(now) {
			g.log.WarnContext(ctx, "identity locked out",
				slog.String("identity", identity),
				slog.Int("failed_attempts", st.Count),
			)
		}
		return ErrUnauthorized
	}

	if err := g.store.Reset(ctx, identity); err != nil {
		return err
	}
	return nil
}
