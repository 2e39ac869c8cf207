// Package rate provides Redis-backed fixed-window counters used for the
// optional login throttle in front of the per-account lockout machine.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - clt:u:  — login per-email
//   - clt:ip: — login per-IP
//
// # What this package must NOT do
//
//   - Implement per-account lockout policy (that lives on the account record).
//   - Be imported outside the credgate module.
package rate
