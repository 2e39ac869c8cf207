package credgate

import (
	"context"
	"net/mail"
	"strings"
	"sync/atomic"
	"time"

	"github.com/credgate/credgate/jwt"
	"github.com/credgate/credgate/password"

	"github.com/credgate/credgate/internal/rate"
)

// Service is the credential and session security core. It orchestrates the
// password hasher, the lockout state machine, reset-token issuance and
// redemption, and session minting against a [CredentialStore].
//
// Construct a Service through [Builder]; the zero value is not usable.
// All methods are safe for concurrent use.
type Service struct {
	config   Config
	store    CredentialStore
	hasher   *password.Bcrypt
	sessions *jwt.Manager
	notifier Notifier
	throttle *rate.Limiter
	audit    *auditDispatcher
	metrics  *Metrics

	// now is injectable for tests; it defaults to time.Now.
	now func() time.Time

	closed atomic.Bool
}

type noopNotifier struct{}

func (noopNotifier) SendPasswordReset(context.Context, string, string) error { return nil }

// Close drains the audit dispatcher and marks the service unusable. Safe to
// call more than once.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.closed.Store(true)
	s.audit.Close()
}

// AuditDropped returns how many audit events were discarded because the
// buffer was full.
func (s *Service) AuditDropped() uint64 {
	if s == nil {
		return 0
	}
	return s.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all metric counters and
// histograms.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return s.metrics.Snapshot()
}

func (s *Service) checkReady() error {
	if s == nil || s.store == nil || s.hasher == nil || s.sessions == nil {
		return ErrNotReady
	}
	if s.closed.Load() {
		return ErrNotReady
	}
	return nil
}

func (s *Service) metricInc(id MetricID) {
	s.metrics.Inc(id)
}

/*
====================================
SESSION HELPERS
====================================
*/

// issueSession mints a signed session token for the account and pairs it with
// its cookie spec.
func (s *Service) issueSession(account Account) (Session, error) {
	token, err := s.sessions.CreateSession(account.ID, account.Email, account.Username, s.now())
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:  token,
		Cookie: s.sessionCookie(token),
	}, nil
}

func (s *Service) sessionCookie(token string) CookieSpec {
	return CookieSpec{
		Name:     s.config.Cookie.Name,
		Value:    token,
		Path:     s.config.Cookie.Path,
		Domain:   s.config.Cookie.Domain,
		MaxAge:   int(s.config.Session.TTL / time.Second),
		HTTPOnly: true,
		Secure:   s.config.Security.RequireSecureCookies,
		SameSite: s.config.Security.SameSitePolicy,
	}
}

// ClearedSessionCookie returns the cookie spec that removes the session
// cookie from the client.
func (s *Service) ClearedSessionCookie() CookieSpec {
	spec := s.sessionCookie("")
	spec.MaxAge = -1
	return spec
}

func (s *Service) authResult(account Account) (*AuthResult, error) {
	session, err := s.issueSession(account)
	if err != nil {
		return nil, err
	}

	s.metricInc(MetricSessionIssued)

	return &AuthResult{
		Account: sanitizeAccount(account),
		Session: session,
	}, nil
}

// sanitizeAccount strips secret material before the account crosses the API
// boundary.
func sanitizeAccount(account Account) Account {
	account.PasswordHash = ""
	account.ResetTokenHash = nil
	account.ResetExpires = nil
	return account
}

/*
====================================
INPUT VALIDATION
====================================
*/

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) validateEmail(email string) error {
	if email == "" {
		return &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	if len(email) > 255 {
		return &ValidationError{Field: "email", Reason: "too long"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &ValidationError{Field: "email", Reason: "not a valid address"}
	}
	return nil
}

func (s *Service) validateUsername(username string) error {
	if username == "" {
		return &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if len(username) > 255 {
		return &ValidationError{Field: "username", Reason: "too long"}
	}
	if strings.ContainsAny(username, " \t\r\n") {
		return &ValidationError{Field: "username", Reason: "must not contain whitespace"}
	}
	return nil
}

func (s *Service) validateNewPassword(plaintext string) error {
	if len(plaintext) < s.config.Password.MinLength {
		return &ValidationError{Field: "password", Reason: "too short"}
	}
	if len(plaintext) > password.MaxPasswordBytes {
		return &ValidationError{Field: "password", Reason: "too long"}
	}
	return nil
}
