// Package middleware provides net/http middleware for session verification.
//
// [Guard] extracts the session token from the configured cookie, falling back
// to an Authorization bearer header, verifies it through the
// [credgate.Service], and injects the resulting claims into the request
// context for downstream handlers.
//
// # What this package must NOT do
//
//   - Touch the credential store. Verification here is stateless; handlers
//     that need live account state look it up themselves.
//   - Write session cookies. Issuance and clearing stay with the Service.
package middleware
