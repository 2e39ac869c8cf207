package credgate

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"math/big"
	"time"

	"github.com/credgate/credgate/internal/lockout"
	"github.com/credgate/credgate/internal/token"
)

// ForgotPassword issues a password reset token for the account registered
// under email and hands the plaintext token to the notifier.
//
// The response is uniform: whether the email is known, unknown, or disabled,
// the caller gets nil. Unknown and disabled addresses burn a small randomized
// delay so response timing does not distinguish them from the issuing path.
// Only a store transport failure is surfaced, as [ErrStoreUnavailable].
//
// At most one reset token is outstanding per account: issuing a new one
// overwrites the stored hash, which invalidates any earlier token. If the
// notifier fails, the just-issued reset state is cleared again so an
// undeliverable token cannot linger, and the caller still gets nil.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if err := s.checkReady(); err != nil {
		return err
	}

	email = normalizeEmail(email)

	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.sleepEnumerationDelay(ctx)
			s.metricInc(MetricResetRequest)
			return nil
		}
		return err
	}

	if !account.IsActive {
		s.sleepEnumerationDelay(ctx)
		s.metricInc(MetricResetRequest)
		return nil
	}

	secret, err := token.NewResetSecret()
	if err != nil {
		return err
	}
	hash := token.Hash(secret)
	expires := s.now().Add(s.config.Reset.TokenTTL)

	if _, err := s.store.ConditionalUpdate(ctx, account.ID, Expected{}, Change{
		ResetTokenHash: &hash,
		ResetExpires:   &expires,
	}); err != nil {
		return err
	}

	s.metricInc(MetricResetRequest)
	s.emitAudit(ctx, auditEventResetRequest, account.ID, true, nil, nil)

	if err := s.notifier.SendPasswordReset(ctx, account.Email, token.Encode(secret)); err != nil {
		// The token is undeliverable; revoke it. Best effort: the hash
		// precondition keeps a racing re-request's fresh token intact.
		if _, clearErr := s.store.ConditionalUpdate(ctx, account.ID, Expected{ResetTokenHash: &hash}, Change{
			ClearReset: true,
		}); clearErr != nil && !errors.Is(clearErr, ErrConflict) {
			log.Printf("credgate: failed to clear undeliverable reset token for account %s: %v", account.ID, clearErr)
		}

		s.metricInc(MetricResetNotifyFailure)
		s.emitAudit(ctx, auditEventNotifyFailure, account.ID, false, err, nil)
	}

	return nil
}

// ResetPassword redeems a plaintext reset token and sets a new password.
//
// Every redemption failure collapses into [ErrInvalidOrExpiredToken]:
// malformed token, unknown token, expired token, or a token superseded
// between lookup and write. A successful reset clears the reset fields,
// resets the lockout state machine, and issues a fresh session.
func (s *Service) ResetPassword(ctx context.Context, plaintextToken, next string) (*AuthResult, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	secret, err := token.Decode(plaintextToken)
	if err != nil {
		s.metricInc(MetricResetConfirmFailure)
		return nil, ErrInvalidOrExpiredToken
	}
	hash := token.Hash(secret)

	account, err := s.store.FindByResetTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.metricInc(MetricResetConfirmFailure)
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, err
	}

	if account.ResetExpires == nil || !s.now().Before(*account.ResetExpires) {
		// Expired. Clear the dead state opportunistically; redemption
		// fails regardless of whether the cleanup write lands.
		_, _ = s.store.ConditionalUpdate(ctx, account.ID, Expected{ResetTokenHash: &hash}, Change{
			ClearReset: true,
		})
		s.metricInc(MetricResetConfirmFailure)
		s.emitAudit(ctx, auditEventResetConfirm, account.ID, false, ErrInvalidOrExpiredToken, nil)
		return nil, ErrInvalidOrExpiredToken
	}

	if err := s.validateNewPassword(next); err != nil {
		return nil, err
	}

	newHash, err := s.hasher.Hash(next)
	if err != nil {
		return nil, err
	}

	zero := 0
	wasLocked := lockout.IsLocked(account.LockUntil, s.now())

	account, err = s.store.ConditionalUpdate(ctx, account.ID, Expected{ResetTokenHash: &hash}, Change{
		PasswordHash:   &newHash,
		ClearReset:     true,
		LoginAttempts:  &zero,
		ClearLockUntil: true,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			s.metricInc(MetricResetConfirmFailure)
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, err
	}

	result, err := s.authResult(account)
	if err != nil {
		return nil, err
	}

	s.metricInc(MetricResetConfirmSuccess)
	metadata := map[string]string{}
	if wasLocked {
		metadata["unlocked"] = "true"
	}
	s.emitAudit(ctx, auditEventResetConfirm, account.ID, true, nil, metadata)

	return result, nil
}

// sleepEnumerationDelay burns 20-40ms so the not-found path of
// ForgotPassword is not measurably faster than the issuing path.
func (s *Service) sleepEnumerationDelay(ctx context.Context) {
	n, err := rand.Int(rand.Reader, big.NewInt(21))
	if err != nil {
		n = big.NewInt(10)
	}
	delay := time.Duration(20+n.Int64()) * time.Millisecond

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
