package credgate

import (
	"context"
)

// ChangePassword replaces the password of an authenticated account after
// verifying the current one, then issues a fresh session.
//
// The new password must differ from the current one ([ErrPasswordReuse]) and
// pass the configured policy ([ValidationError]). A wrong current password is
// [ErrInvalidCredentials]; it does not drive the lockout state machine, since
// the caller already holds a verified session.
func (s *Service) ChangePassword(ctx context.Context, accountID, current, next string) (*AuthResult, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	account, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !account.IsActive {
		return nil, ErrAccountDisabled
	}

	if !s.hasher.Verify(current, account.PasswordHash) {
		s.metricInc(MetricPasswordChangeInvalidOld)
		s.emitAudit(ctx, auditEventPasswordChange, account.ID, false, ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	if s.hasher.Verify(next, account.PasswordHash) {
		s.metricInc(MetricPasswordChangeReuseRejected)
		return nil, ErrPasswordReuse
	}

	if err := s.validateNewPassword(next); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return nil, err
	}

	account, err = s.store.ConditionalUpdate(ctx, account.ID, Expected{}, Change{
		PasswordHash: &hash,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.authResult(account)
	if err != nil {
		return nil, err
	}

	s.metricInc(MetricPasswordChangeSuccess)
	s.emitAudit(ctx, auditEventPasswordChange, account.ID, true, nil, nil)

	return result, nil
}
