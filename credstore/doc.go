// Package credstore is the Redis-backed implementation of
// [credgate.CredentialStore].
//
// # Key layout
//
// All keys share a configurable prefix (default "cg"):
//
//	<prefix>:a:<id>          account record (versioned binary encoding)
//	<prefix>:e:<email>       email index -> id (email lowercased)
//	<prefix>:u:<username>    username index -> id (exact)
//	<prefix>:r:<hex(hash)>   reset-token-hash index -> id
//
// # Atomicity
//
// CreateUnique and ConditionalUpdate run inside Redis WATCH/MULTI
// transactions. A transaction that loses the optimistic race is retried a
// bounded number of times; a precondition that no longer holds is reported as
// [credgate.ErrConflict] without writing anything.
//
// # Architecture boundaries
//
// This package translates between [credgate.Account] and the Redis wire
// format and enforces uniqueness and compare-and-swap semantics. It never
// interprets account state: lockout policy, reset-token lifetimes, and
// password rules all live above it.
//
// # What this package must NOT do
//
//   - Report a transport failure as a missing record. Network and protocol
//     errors always wrap [credgate.ErrStoreUnavailable].
//   - Hash, compare, or otherwise inspect password or token material.
//   - Expire records on its own. Reset-token expiry is a Service decision.
package credstore
