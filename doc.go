// Package credgate provides a credential and session security core: salted slow
// password hashing, attempt-based account lockout, single-use password reset
// tokens, and signed stateless session tokens, coordinated over a pluggable
// credential store.
//
// The package is designed for concurrent server workloads: Service methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// credgate is the public surface. It exposes [Service], [Builder], [Config],
// the [CredentialStore] contract, and value types (Account, AuthResult,
// CookieSpec, MetricsSnapshot). Hashing, token signing, and the Redis store
// implementation live in sub-packages; pure helpers live under internal/ and
// are never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, record encodings, or store index layouts in its
//     public API.
//   - Deliver email. Reset notifications go through the caller-supplied
//     [Notifier].
//   - Perform I/O outside of Service methods (construction via Builder is
//     allocation-only until Build).
//
// # Concurrency contract
//
// Every mutation of an account's security fields (attempt counters, lock
// timestamps, reset token state, password hash) is a conditional update
// against the store. Two racing failed logins at attempts=3 converge on
// attempts=5 and a locked account, never on a lost update.
package credgate
