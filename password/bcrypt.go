package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinCost is the lowest accepted bcrypt cost factor.
	MinCost = 10
	// DefaultCost is applied when Config.Cost is zero.
	DefaultCost = 12
	// MaxPasswordBytes is the bcrypt input limit. Longer inputs are rejected
	// rather than silently truncated.
	MaxPasswordBytes = 72
)

// Config defines a public type used by credgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Cost int
}

// Bcrypt defines a public type used by credgate APIs.
//
// Bcrypt instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Bcrypt struct {
	config Config
}

// NewBcrypt validates cfg and returns a hasher. A zero cost selects
// [DefaultCost]; costs below [MinCost] are rejected.
func NewBcrypt(cfg Config) (*Bcrypt, error) {
	if cfg.Cost == 0 {
		cfg.Cost = DefaultCost
	}
	if cfg.Cost < MinCost {
		return nil, errors.New("password cost must be >= 10")
	}
	if cfg.Cost > bcrypt.MaxCost {
		return nil, errors.New("password cost must be <= 31")
	}

	return &Bcrypt{config: cfg}, nil
}

// Cost returns the configured cost factor.
func (b *Bcrypt) Cost() int {
	return b.config.Cost
}

// Hash derives a salted bcrypt hash from the plaintext. Each call produces a
// distinct hash for the same input because the salt is fresh.
func (b *Bcrypt) Hash(password string) (string, error) {
	// Password processing uses raw string bytes exactly as provided (no Unicode normalization).
	if len(password) == 0 {
		return "", errors.New("password must not be empty")
	}
	if len(password) > MaxPasswordBytes {
		return "", errors.New("password must be at most 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.config.Cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify reports whether the plaintext matches the stored hash. The
// comparison is constant-time by construction. Malformed or foreign hashes
// return false; Verify never panics and never distinguishes "wrong password"
// from "unparseable hash".
func (b *Bcrypt) Verify(password, encodedHash string) bool {
	if len(password) == 0 || len(password) > MaxPasswordBytes {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}

// NeedsUpgrade reports whether the stored hash was produced with a cost below
// the configured one. Callers may re-hash after the next successful
// verification; this package never does it implicitly.
func (b *Bcrypt) NeedsUpgrade(encodedHash string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return false, err
	}

	return cost < b.config.Cost, nil
}
