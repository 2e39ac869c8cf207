package credgate

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Register creates a new account and establishes a session for it.
//
// Username is trimmed; email is trimmed and lowercased. Uniqueness of both is
// enforced atomically by the store: a conflict surfaces as a
// [DuplicateKeyError] naming the taken field. Validation failures surface as
// [ValidationError].
func (s *Service) Register(ctx context.Context, username, email, plaintext string) (*AuthResult, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if err := s.validateUsername(username); err != nil {
		return nil, err
	}
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}
	if err := s.validateNewPassword(plaintext); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, err
	}

	account := Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         s.config.Account.DefaultRole,
		IsActive:     true,
		CreatedAt:    s.now(),
	}

	if err := s.store.CreateUnique(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			s.metricInc(MetricRegisterDuplicate)
			s.emitAudit(ctx, auditEventRegister, "", false, err, nil)
		}
		return nil, err
	}

	result, err := s.authResult(account)
	if err != nil {
		return nil, err
	}

	s.metricInc(MetricRegisterSuccess)
	s.emitAudit(ctx, auditEventRegister, account.ID, true, nil, nil)

	return result, nil
}
