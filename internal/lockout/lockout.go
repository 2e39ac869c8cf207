// Package lockout implements the account lockout state machine as pure
// functions over stored state. Persistence and atomicity are the caller's
// responsibility: transitions computed here must be applied with a
// conditional update keyed on the attempt count that was read.
package lockout

import "time"

// Policy holds the lockout thresholds.
type Policy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

// IsLocked reports whether an account is currently locked. A nil or
// past lockUntil means not locked; the stored value is then stale state
// waiting for the next transition to clear it.
func IsLocked(lockUntil *time.Time, now time.Time) bool {
	return lockUntil != nil && now.Before(*lockUntil)
}

// Remaining returns how long the lock has left, or zero when not locked.
func Remaining(lockUntil *time.Time, now time.Time) time.Duration {
	if !IsLocked(lockUntil, now) {
		return 0
	}
	return lockUntil.Sub(now)
}

// NextOnFailure computes the state after one failed verification.
//
// An expired lock starts a fresh window: the count restarts at 1 regardless
// of the stored value. Otherwise the count increments, and reaching the
// policy threshold sets a lock of LockDuration from now.
func NextOnFailure(attempts int, lockUntil *time.Time, now time.Time, p Policy) (int, *time.Time) {
	next := attempts + 1
	if lockUntil != nil && !now.Before(*lockUntil) {
		next = 1
	}

	if next >= p.MaxAttempts {
		until := now.Add(p.LockDuration)
		return next, &until
	}
	return next, nil
}
