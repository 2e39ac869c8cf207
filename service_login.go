package credgate

import (
	"context"
	"errors"
	"fmt"

	"github.com/credgate/credgate/internal/lockout"
	"github.com/credgate/credgate/internal/rate"
)

// lockoutUpdateRetries bounds how often a lost compare-and-swap on the
// attempt counter is retried against a fresh read.
const lockoutUpdateRetries = 4

// Login verifies the credentials for email and establishes a session.
//
// Errors: [ErrAccountNotFound] when no account exists for the email,
// [ErrAccountDisabled], [ErrAccountLocked] while a lock window is active or
// when this failure triggers one, [ErrLoginThrottled] when the optional
// throttle budget is exhausted, [ErrInvalidCredentials] on password mismatch,
// [ErrStoreUnavailable] on transport failure.
//
// A locked account is rejected before the password is verified, so a caller
// probing a locked account learns nothing about the password.
func (s *Service) Login(ctx context.Context, email, plaintext string) (*AuthResult, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	ip := clientIPFromContext(ctx)

	if s.throttle != nil {
		if err := s.throttle.CheckLogin(ctx, email, ip); err != nil {
			return nil, s.mapThrottleError(ctx, err)
		}
	}

	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !account.IsActive {
		s.emitAudit(ctx, auditEventLoginFailure, account.ID, false, ErrAccountDisabled, nil)
		return nil, ErrAccountDisabled
	}

	if lockout.IsLocked(account.LockUntil, s.now()) {
		s.metricInc(MetricLoginLocked)
		s.emitAudit(ctx, auditEventLoginLocked, account.ID, false, ErrAccountLocked, nil)
		return nil, ErrAccountLocked
	}

	if !s.hasher.Verify(plaintext, account.PasswordHash) {
		lockedNow := s.recordLoginFailure(ctx, account)

		if s.throttle != nil {
			_ = s.throttle.IncrementLogin(ctx, email, ip)
		}

		s.metricInc(MetricLoginFailure)
		if lockedNow {
			s.metricInc(MetricLoginLocked)
			s.emitAudit(ctx, auditEventLoginLocked, account.ID, false, ErrAccountLocked, nil)
			return nil, ErrAccountLocked
		}

		s.emitAudit(ctx, auditEventLoginFailure, account.ID, false, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	account, err = s.recordLoginSuccess(ctx, account)
	if err != nil {
		return nil, err
	}

	if s.throttle != nil {
		_ = s.throttle.ResetLogin(ctx, email, ip)
	}

	result, err := s.authResult(account)
	if err != nil {
		return nil, err
	}

	s.metricInc(MetricLoginSuccess)
	s.emitAudit(ctx, auditEventLoginSuccess, account.ID, true, nil, nil)

	return result, nil
}

// recordLoginFailure drives the lockout state machine one failed step
// forward. The transition is keyed on the attempt count that was read: a
// racing failure invalidates the write and the transition is recomputed from
// a fresh read, so two concurrent failures at attempts=3 converge on 5 and a
// lock, never on a lost update.
//
// Returns true when this failure activated a lock. Persistence errors are
// swallowed: the caller reports the password mismatch either way.
func (s *Service) recordLoginFailure(ctx context.Context, account Account) bool {
	policy := lockout.Policy{
		MaxAttempts:  s.config.Lockout.MaxAttempts,
		LockDuration: s.config.Lockout.LockDuration,
	}

	for i := 0; i < lockoutUpdateRetries; i++ {
		now := s.now()

		// A racer may have locked the account already; its failure is
		// accounted for, ours is absorbed by the active lock.
		if lockout.IsLocked(account.LockUntil, now) {
			return true
		}

		attempts, until := lockout.NextOnFailure(account.LoginAttempts, account.LockUntil, now, policy)

		readAttempts := account.LoginAttempts
		change := Change{LoginAttempts: &attempts}
		if until != nil {
			change.LockUntil = until
		} else if account.LockUntil != nil {
			change.ClearLockUntil = true
		}

		_, err := s.store.ConditionalUpdate(ctx, account.ID, Expected{LoginAttempts: &readAttempts}, change)
		if err == nil {
			return until != nil
		}
		if !errors.Is(err, ErrConflict) {
			return false
		}

		fresh, err := s.store.FindByID(ctx, account.ID)
		if err != nil {
			return false
		}
		account = fresh
	}

	return false
}

// recordLoginSuccess unconditionally resets the lockout state and stamps the
// login time.
func (s *Service) recordLoginSuccess(ctx context.Context, account Account) (Account, error) {
	zero := 0
	now := s.now()

	return s.store.ConditionalUpdate(ctx, account.ID, Expected{}, Change{
		LoginAttempts:  &zero,
		ClearLockUntil: true,
		LastLogin:      &now,
	})
}

func (s *Service) mapThrottleError(ctx context.Context, err error) error {
	if errors.Is(err, rate.ErrRateLimited) {
		s.metricInc(MetricLoginThrottled)
		s.emitAudit(ctx, auditEventLoginThrottled, "", false, ErrLoginThrottled, nil)
		return ErrLoginThrottled
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
