package gate

import (
	"context"
	"sync"
	"time"
)

// attempt is the mutable per-identity counter entry.
type attempt struct {
	count       int
	lockedUntil time.Time
	lastSeen    time.Time // Used by cleanup to drop stale entries
}

// MemoryStore implements Store with process-lifetime in-memory state. Lockouts
// do not survive restarts and are not shared across instances; deployments
// needing either use the Redis store instead.
type MemoryStore struct {
	mu       sync.Mutex
	attempts map[string]*attempt

	now             func() time.Time
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets the interval for removing stale entries.
// Set to 0 to disable automatic cleanup.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// WithMemoryClock overrides the time source. Intended for tests.
func WithMemoryClock(now func() time.Time) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStore creates an in-memory attempt store with optional cleanup.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		attempts:        make(map[string]*attempt),
		now:             time.Now,
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(ms)
	}

	if ms.cleanupInterval > 0 {
		go ms.cleanup()
	}

	return ms
}

func (ms *MemoryStore) Fail(_ context.Context, identity string, maxAttempts int, lockFor time.Duration) (State, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	a, exists := ms.attempts[identity]
	if !exists {
		a = &attempt{}
		ms.attempts[identity] = a
	}

	a.count++
	a.lastSeen = now
	if a.count >= maxAttempts {
		a.lockedUntil = now.Add(lockFor)
	}

	return State{Count: a.count, LockedUntil: a.lockedUntil}, nil
}

func (ms *MemoryStore) Status(_ context.Context, identity string) (State, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	a, exists := ms.attempts[identity]
	if !exists {
		return State{}, nil
	}
	return State{Count: a.count, LockedUntil: a.lockedUntil}, nil
}

func (ms *MemoryStore) Reset(_ context.Context, identity string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.attempts, identity)
	return nil
}

// cleanup runs periodically to remove stale entries.
func (ms *MemoryStore) cleanup() {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.removeStale()
		case <-ms.stopCleanup:
			return
		}
	}
}

// removeStale drops identities whose lockout has expired and that have not
// failed recently, bounding memory growth under scanning traffic.
func (ms *MemoryStore) removeStale() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	staleThreshold := 1 * time.Hour

	for identity, a := range ms.attempts {
		if now.Sub(a.lastSeen) > staleThreshold && !now.Before(a.lockedUntil) {
			delete(ms.attempts, identity)
		}
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (ms *MemoryStore) Close() {
	select {
	case <-ms.stopCleanup:
		// Already closed
	default:
		close(ms.stopCleanup)
	}
}
