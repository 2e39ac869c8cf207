package credgate

import (
	"context"
	"net/http"
	"time"
)

// Account is the security record the core operates on. The [CredentialStore]
// owns persistence; the Service never mutates an Account in place, it asks the
// store for a conditional update and works with the returned copy.
//
// Invariants maintained by the Service:
//
//   - ResetTokenHash and ResetExpires are always both set or both nil.
//   - LoginAttempts only ever resets to 0 (successful login, redeemed reset)
//     or moves through the lockout state machine.
//   - PasswordHash never appears in serialized output.
type Account struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Role           string     `json:"role"`
	IsActive       bool       `json:"is_active"`
	LoginAttempts  int        `json:"login_attempts"`
	LockUntil      *time.Time `json:"lock_until,omitempty"`
	ResetTokenHash *[32]byte  `json:"-"`
	ResetExpires   *time.Time `json:"-"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Expected lists the preconditions of a conditional update. Nil fields are
// unchecked; a non-nil field must match the stored record exactly or the
// store returns [ErrConflict] without writing.
type Expected struct {
	LoginAttempts  *int
	ResetTokenHash *[32]byte
}

// Change lists the mutations of a conditional update. Nil fields are left
// untouched. ClearLockUntil and ClearReset remove the corresponding optional
// fields; ClearReset always removes hash and expiry together.
type Change struct {
	PasswordHash   *string
	LoginAttempts  *int
	LockUntil      *time.Time
	ClearLockUntil bool
	ResetTokenHash *[32]byte
	ResetExpires   *time.Time
	ClearReset     bool
	LastLogin      *time.Time
}

// CredentialStore is the persistence contract for account security records.
// Implementations must guarantee:
//
//   - Email lookups are case-insensitive; username lookups are exact.
//   - CreateUnique enforces email and username uniqueness atomically and
//     reports violations as [DuplicateKeyError] with the violated field.
//   - ConditionalUpdate applies Expected/Change as a single atomic
//     compare-and-swap and returns [ErrConflict] on precondition mismatch.
//   - Transport failures are wrapped in [ErrStoreUnavailable] and are never
//     reported as [ErrAccountNotFound].
//
// The Redis implementation lives in the credstore sub-package.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByUsername(ctx context.Context, username string) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
	FindByResetTokenHash(ctx context.Context, hash [32]byte) (Account, error)
	CreateUnique(ctx context.Context, account Account) error
	ConditionalUpdate(ctx context.Context, id string, expected Expected, change Change) (Account, error)
	Delete(ctx context.Context, id string) error
}

// Notifier delivers password reset tokens out of band. The Service treats
// delivery failure as fatal for the issued token: reset state is cleared and
// the caller still receives a uniform accepted response.
type Notifier interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// Claims is the verified content of a session token.
type Claims struct {
	AccountID string
	Email     string
	Username  string
	ExpiresAt time.Time
}

// CookieSpec describes how a session token should be set as an HTTP cookie.
// MaxAge mirrors the session TTL; Logout returns a spec with MaxAge -1.
type CookieSpec struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	MaxAge   int
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
}

// HTTPCookie converts the spec into an *http.Cookie ready for http.SetCookie.
func (c CookieSpec) HTTPCookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		MaxAge:   c.MaxAge,
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
}

// Session pairs a signed token with its cookie spec.
type Session struct {
	Token  string
	Cookie CookieSpec
}

// AuthResult is returned by operations that establish a session. Account is a
// sanitized copy (no password hash, no reset state).
type AuthResult struct {
	Account Account
	Session Session
}
