// Package gate implements the access check guarding every vault operation:
// a single shared app password with per-identity progressive lockout.
//
// Attempt counters live in an injected Store with an explicit lifecycle; the
// default MemoryStore is process-local, while RedisStore shares lockout state
// across instances. Credential verification is a pluggable capability so the
// plaintext constant-time comparison can be swapped for a bcrypt hash check.
package gate
