package credgate

import (
	"context"
	"errors"
	"time"

	"github.com/credgate/credgate/jwt"
)

// VerifySession checks a session token and returns its claims.
//
// Verification is stateless: signature, algorithm, and expiry only, no store
// round-trip. An expired token is [ErrSessionExpired]; every other failure is
// [ErrSessionInvalid]. Callers that need the live account state follow up
// with a store lookup on the returned account ID.
func (s *Service) VerifySession(ctx context.Context, tokenStr string) (*Claims, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}
	_ = ctx

	start := time.Now()
	defer func() {
		s.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}()

	claims, err := s.sessions.ParseSession(tokenStr)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrSessionInvalid
	}

	out := &Claims{
		AccountID: claims.UID,
		Email:     claims.Email,
		Username:  claims.Username,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	return out, nil
}

// Logout returns the cookie spec that clears the session cookie. Session
// tokens are self-contained and stay valid until expiry; logout removes the
// client's copy and records the event.
func (s *Service) Logout(ctx context.Context, accountID string) CookieSpec {
	s.metricInc(MetricLogout)
	s.emitAudit(ctx, auditEventLogout, accountID, true, nil, nil)

	return s.ClearedSessionCookie()
}
