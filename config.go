package credgate

import (
	"errors"
	"net/http"
	"time"
)

// Config defines a public type used by credgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Password PasswordConfig
	Lockout  LockoutConfig
	Reset    ResetConfig
	Session  SessionConfig
	Cookie   CookieConfig
	Throttle ThrottleConfig
	Account  AccountConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by credgate APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Cost      int // bcrypt cost factor, floor 10
	MinLength int // minimum plaintext length accepted by the Service
}

// LockoutConfig defines a public type used by credgate APIs.
//
// LockoutConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LockoutConfig struct {
	MaxAttempts  int
	LockDuration time.Duration
}

// ResetConfig defines a public type used by credgate APIs.
//
// ResetConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ResetConfig struct {
	TokenTTL time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by credgate APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	TTL           time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// CookieConfig defines a public type used by credgate APIs.
//
// CookieConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CookieConfig struct {
	Name   string
	Path   string
	Domain string
}

// ThrottleConfig tunes the optional Redis-backed login throttle. It is a
// defense-in-depth layer in front of the per-account lockout state machine
// and requires a Redis client on the [Builder] when enabled.
type ThrottleConfig struct {
	Enabled          bool
	EnableIPThrottle bool
	MaxAttempts      int
	Cooldown         time.Duration
}

// AccountConfig defines a public type used by credgate APIs.
//
// AccountConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccountConfig struct {
	DefaultRole string
}

// AuditConfig defines a public type used by credgate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by credgate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// SecurityConfig defines a public type used by credgate APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	ProductionMode       bool
	RequireSecureCookies bool
	SameSitePolicy       http.SameSite
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration: bcrypt cost 12, five
// failed attempts lock the account for two hours, reset tokens live ten
// minutes, sessions live seven days, and cookies are httpOnly + SameSite
// strict.
func DefaultConfig() Config {
	return Config{
		Password: PasswordConfig{
			Cost:      12,
			MinLength: 8,
		},
		Lockout: LockoutConfig{
			MaxAttempts:  5,
			LockDuration: 2 * time.Hour,
		},
		Reset: ResetConfig{
			TokenTTL: 10 * time.Minute,
		},
		Session: SessionConfig{
			TTL:           7 * 24 * time.Hour,
			SigningMethod: "ed25519",
		},
		Cookie: CookieConfig{
			Name: "session",
			Path: "/",
		},
		Throttle: ThrottleConfig{
			Enabled:          false,
			EnableIPThrottle: true,
			MaxAttempts:      20,
			Cooldown:         15 * time.Minute,
		},
		Account: AccountConfig{
			DefaultRole: "user",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			ProductionMode:       false,
			RequireSecureCookies: true,
			SameSitePolicy:       http.SameSiteStrictMode,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.PrivateKey = cloneBytes(cfg.Session.PrivateKey)
	out.Session.PublicKey = cloneBytes(cfg.Session.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Password
	if c.Password.Cost < 10 {
		return errors.New("Password Cost must be >= 10")
	}
	if c.Password.Cost > 31 {
		return errors.New("Password Cost must be <= 31")
	}
	if c.Password.MinLength < 8 {
		return errors.New("Password MinLength must be >= 8")
	}

	// Lockout
	if c.Lockout.MaxAttempts <= 0 {
		return errors.New("Lockout MaxAttempts must be > 0")
	}
	if c.Lockout.LockDuration <= 0 {
		return errors.New("Lockout LockDuration must be > 0")
	}

	// Reset
	if c.Reset.TokenTTL <= 0 {
		return errors.New("Reset TokenTTL must be > 0")
	}
	if c.Reset.TokenTTL > time.Hour {
		return errors.New("Reset TokenTTL must be <= 1h")
	}

	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.SigningMethod != "ed25519" && c.Session.SigningMethod != "hs256" {
		return errors.New("unsupported session signing method")
	}
	if c.Session.SigningMethod == "ed25519" && len(c.Session.PrivateKey) == 0 {
		return errors.New("ed25519 requires PrivateKey")
	}
	if c.Session.SigningMethod == "ed25519" && len(c.Session.PublicKey) == 0 {
		return errors.New("ed25519 requires PublicKey")
	}
	if c.Session.SigningMethod == "hs256" && len(c.Session.PrivateKey) == 0 {
		return errors.New("hs256 requires PrivateKey")
	}
	if c.Session.Leeway < 0 || c.Session.Leeway > 2*time.Minute {
		return errors.New("Session Leeway must be between 0 and 2m")
	}

	// Cookie
	if c.Cookie.Name == "" {
		return errors.New("Cookie Name is required")
	}
	if c.Cookie.Path == "" {
		return errors.New("Cookie Path is required")
	}

	// Throttle
	if c.Throttle.Enabled {
		if c.Throttle.MaxAttempts <= 0 {
			return errors.New("Throttle MaxAttempts must be > 0")
		}
		if c.Throttle.Cooldown <= 0 {
			return errors.New("Throttle Cooldown must be > 0")
		}
	}

	// Account
	if c.Account.DefaultRole == "" {
		return errors.New("Account DefaultRole is required")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	if c.Security.ProductionMode {
		if !c.Security.RequireSecureCookies {
			return errors.New("ProductionMode requires RequireSecureCookies")
		}
		if c.Session.SigningMethod == "hs256" && len(c.Session.PrivateKey) < 32 {
			return errors.New("ProductionMode requires hs256 key length >= 256 bits")
		}
		if c.Session.TTL > 30*24*time.Hour {
			return errors.New("ProductionMode requires Session TTL <= 30d")
		}
		if c.Password.Cost < 12 {
			return errors.New("ProductionMode requires Password Cost >= 12")
		}
	}

	return nil
}
