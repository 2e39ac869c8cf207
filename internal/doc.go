// Package internal groups helpers that are intentionally private to credgate.
//
// # Sub-packages
//
//   - lockout — pure attempt/lock state transitions
//   - token — reset token generation, encoding, and hashing
//   - rate — Redis-backed fixed-window login throttle primitives
//
// # What this package must NOT do
//
//   - Export types that appear in the public credgate API.
//   - Be imported by any package outside the credgate module.
package internal
