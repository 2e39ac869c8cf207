package credgate

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is an exported constant or variable used by the credential core.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotFound is an exported constant or variable used by the credential core.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountLocked is an exported constant or variable used by the credential core.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountDisabled is an exported constant or variable used by the credential core.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrInvalidOrExpiredToken is returned for every reset-token redemption
	// failure: unknown token, expired token, malformed token, or a token
	// superseded by a newer request. The causes are indistinguishable to callers.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	// ErrSessionExpired is an exported constant or variable used by the credential core.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionInvalid is an exported constant or variable used by the credential core.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrLoginThrottled is an exported constant or variable used by the credential core.
	ErrLoginThrottled = errors.New("login throttled")
	// ErrPasswordReuse is an exported constant or variable used by the credential core.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrValidation is the sentinel every [ValidationError] unwraps to.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateKey is the sentinel every [DuplicateKeyError] unwraps to.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrConflict is returned by [CredentialStore.ConditionalUpdate] when the
	// expected field values no longer match the stored record.
	ErrConflict = errors.New("conditional update conflict")
	// ErrStoreUnavailable marks transient store/transport failures. It is
	// retryable and is never reported as a missing record.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrNotReady is an exported constant or variable used by the credential core.
	ErrNotReady = errors.New("service not initialized")
)

// ValidationError reports a rejected input field. It unwraps to
// [ErrValidation] so callers can match the whole class with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// DuplicateKeyError reports a uniqueness violation during account creation.
// Field names the violated constraint ("email" or "username") so callers can
// surface a precise message. It unwraps to [ErrDuplicateKey].
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key: %s", e.Field)
}

func (e *DuplicateKeyError) Unwrap() error {
	return ErrDuplicateKey
}
