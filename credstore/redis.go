package credstore

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/credgate/credgate"
)

const defaultPrefix = "cg"

// casRetries bounds the optimistic WATCH loop. Contention on a single
// account is rare; four attempts is enough to absorb a racing writer.
const casRetries = 4

// Store defines a public type used by credgate APIs.
//
// Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a Redis-backed credential store. An empty prefix selects the
// default "cg".
func New(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) accountKey(id string) string {
	return s.prefix + ":a:" + id
}

func (s *Store) emailKey(email string) string {
	return s.prefix + ":e:" + strings.ToLower(email)
}

func (s *Store) usernameKey(username string) string {
	return s.prefix + ":u:" + username
}

func (s *Store) resetKey(hash [32]byte) string {
	return s.prefix + ":r:" + hex.EncodeToString(hash[:])
}

// Ping verifies connectivity to the backing Redis.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", credgate.ErrStoreUnavailable, err)
	}
	return nil
}

// FindByID returns the account record for id.
func (s *Store) FindByID(ctx context.Context, id string) (credgate.Account, error) {
	return s.fetch(ctx, s.accountKey(id))
}

// FindByEmail returns the account registered under email. The lookup is
// case-insensitive.
func (s *Store) FindByEmail(ctx context.Context, email string) (credgate.Account, error) {
	return s.fetchByIndex(ctx, s.emailKey(email))
}

// FindByUsername returns the account registered under username. The lookup is
// exact.
func (s *Store) FindByUsername(ctx context.Context, username string) (credgate.Account, error) {
	return s.fetchByIndex(ctx, s.usernameKey(username))
}

// FindByResetTokenHash returns the account holding the given reset-token
// hash. The index is verified against the record so a stale index entry is
// reported as not found rather than resolving to the wrong token.
func (s *Store) FindByResetTokenHash(ctx context.Context, hash [32]byte) (credgate.Account, error) {
	account, err := s.fetchByIndex(ctx, s.resetKey(hash))
	if err != nil {
		return credgate.Account{}, err
	}
	if account.ResetTokenHash == nil || subtle.ConstantTimeCompare(account.ResetTokenHash[:], hash[:]) != 1 {
		return credgate.Account{}, credgate.ErrAccountNotFound
	}
	return account, nil
}

// CreateUnique stores a new account and claims its email and username index
// entries in one transaction. A taken index reports [credgate.DuplicateKeyError]
// naming the violated field; nothing is written in that case.
func (s *Store) CreateUnique(ctx context.Context, account credgate.Account) error {
	if account.ID == "" {
		return errors.New("account id must not be empty")
	}

	aKey := s.accountKey(account.ID)
	eKey := s.emailKey(account.Email)
	uKey := s.usernameKey(account.Username)

	encoded, err := encodeAccountRecord(account)
	if err != nil {
		return err
	}

	for i := 0; i < casRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			taken, err := tx.Exists(ctx, eKey).Result()
			if err != nil {
				return err
			}
			if taken > 0 {
				return &credgate.DuplicateKeyError{Field: "email"}
			}

			taken, err = tx.Exists(ctx, uKey).Result()
			if err != nil {
				return err
			}
			if taken > 0 {
				return &credgate.DuplicateKeyError{Field: "username"}
			}

			taken, err = tx.Exists(ctx, aKey).Result()
			if err != nil {
				return err
			}
			if taken > 0 {
				return &credgate.DuplicateKeyError{Field: "id"}
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, aKey, encoded, 0)
				pipe.Set(ctx, eKey, account.ID, 0)
				pipe.Set(ctx, uKey, account.ID, 0)
				return nil
			})
			return err
		}, aKey, eKey, uKey)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, credgate.ErrDuplicateKey) {
				return err
			}
			return fmt.Errorf("%w: %v", credgate.ErrStoreUnavailable, err)
		}

		return nil
	}

	return fmt.Errorf("%w: create transaction retries exhausted", credgate.ErrConflict)
}

// ConditionalUpdate applies change to the account iff every non-nil field of
// expected matches the stored record. The read, the comparison, and the write
// execute as one optimistic transaction; a mismatch returns
// [credgate.ErrConflict] and writes nothing.
func (s *Store) ConditionalUpdate(ctx context.Context, id string, expected credgate.Expected, change credgate.Change) (credgate.Account, error) {
	aKey := s.accountKey(id)

	for i := 0; i < casRetries; i++ {
		var updated credgate.Account

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, aKey).Bytes()
			if err != nil {
				return err
			}

			account, err := decodeAccountRecord(data)
			if err != nil {
				return err
			}

			if expected.LoginAttempts != nil && account.LoginAttempts != *expected.LoginAttempts {
				return credgate.ErrConflict
			}
			if expected.ResetTokenHash != nil {
				if account.ResetTokenHash == nil ||
					subtle.ConstantTimeCompare(account.ResetTokenHash[:], expected.ResetTokenHash[:]) != 1 {
					return credgate.ErrConflict
				}
			}

			oldReset := account.ResetTokenHash

			if change.PasswordHash != nil {
				account.PasswordHash = *change.PasswordHash
			}
			if change.LoginAttempts != nil {
				account.LoginAttempts = *change.LoginAttempts
			}
			if change.LockUntil != nil {
				lock := *change.LockUntil
				account.LockUntil = &lock
			}
			if change.ClearLockUntil {
				account.LockUntil = nil
			}
			if change.ClearReset {
				account.ResetTokenHash = nil
				account.ResetExpires = nil
			} else if change.ResetTokenHash != nil {
				if change.ResetExpires == nil {
					return errors.New("reset hash change without expiry")
				}
				hash := *change.ResetTokenHash
				expires := *change.ResetExpires
				account.ResetTokenHash = &hash
				account.ResetExpires = &expires
			}
			if change.LastLogin != nil {
				last := *change.LastLogin
				account.LastLogin = &last
			}

			encoded, err := encodeAccountRecord(account)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, aKey, encoded, 0)
				if oldReset != nil && (account.ResetTokenHash == nil || *account.ResetTokenHash != *oldReset) {
					pipe.Del(ctx, s.resetKey(*oldReset))
				}
				if account.ResetTokenHash != nil && (oldReset == nil || *account.ResetTokenHash != *oldReset) {
					pipe.Set(ctx, s.resetKey(*account.ResetTokenHash), account.ID, 0)
				}
				return nil
			})
			if err != nil {
				return err
			}

			updated = account
			return nil
		}, aKey)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return credgate.Account{}, credgate.ErrAccountNotFound
			case errors.Is(err, credgate.ErrConflict):
				return credgate.Account{}, err
			default:
				return credgate.Account{}, fmt.Errorf("%w: %v", credgate.ErrStoreUnavailable, err)
			}
		}

		return updated, nil
	}

	return credgate.Account{}, fmt.Errorf("%w: update transaction retries exhausted", credgate.ErrConflict)
}

// Delete removes the account record and all of its index entries.
func (s *Store) Delete(ctx context.Context, id string) error {
	aKey := s.accountKey(id)

	for i := 0; i < casRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, aKey).Bytes()
			if err != nil {
				return err
			}

			account, err := decodeAccountRecord(data)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, aKey)
				pipe.Del(ctx, s.emailKey(account.Email))
				pipe.Del(ctx, s.usernameKey(account.Username))
				if account.ResetTokenHash != nil {
					pipe.Del(ctx, s.resetKey(*account.ResetTokenHash))
				}
				return nil
			})
			return err
		}, aKey)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return credgate.ErrAccountNotFound
			}
			return fmt.Errorf("%w: %v", credgate.ErrStoreUnavailable, err)
		}

		return nil
	}

	return fmt.Errorf("%w: delete transaction retries exhausted", credgate.ErrConflict)
}

func (s *Store) fetch(ctx context.Context, key string) (credgate.Account, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return credgate.Account{}, credgate.ErrAccountNotFound
		}
		return credgate.Account{}, fmt.Errorf("%w: %v", credgate.ErrStoreUnavailable, err)
	}

	account, err := decodeAccountRecord(data)
	if err != nil {
		return credgate.Account{}, fmt.Errorf("%w: corrupt account record: %v", credgate.ErrStoreUnavailable, err)
	}

	return account, nil
}

func (s *Store) fetchByIndex(ctx context.Context, indexKey string) (credgate.Account, error) {
	id, err := s.redis.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return credgate.Account{}, credgate.ErrAccountNotFound
		}
		return credgate.Account{}, fmt.Errorf("%w: %v", credgate.ErrStoreUnavailable, err)
	}

	return s.fetch(ctx, s.accountKey(id))
}
