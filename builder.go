package credgate

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	credjwt "github.com/credgate/credgate/jwt"
	"github.com/credgate/credgate/password"

	"github.com/credgate/credgate/internal/rate"
)

// Builder assembles a [Service]. A Builder is single-use: Build consumes it
// and further calls return an error.
type Builder struct {
	config   Config
	store    CredentialStore
	notifier Notifier
	redis    redis.UniversalClient
	sink     AuditSink
	clock    func() time.Time
	built    bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. Call it before the other
// With* methods that refine it.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the credential store. Required.
func (b *Builder) WithStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithNotifier sets the reset-token notifier. Optional; without one, issued
// tokens are silently undeliverable, which only makes sense in tests.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithRedis sets the Redis client backing the login throttle. Required when
// Throttle.Enabled.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the destination for audit events. Only consulted when
// Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithSessionKeys sets the session signing key material on the current
// config.
func (b *Builder) WithSessionKeys(privateKey, publicKey []byte) *Builder {
	b.config.Session.PrivateKey = cloneBytes(privateKey)
	b.config.Session.PublicKey = cloneBytes(publicKey)
	return b
}

// WithClock overrides the time source. Tests use it to drive lock windows
// and token expiry deterministically.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration, wires the components, and returns the
// Service.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("credential store is required")
	}
	if b.config.Throttle.Enabled && b.redis == nil {
		return nil, errors.New("throttle requires a redis client")
	}

	hasher, err := password.NewBcrypt(password.Config{
		Cost: b.config.Password.Cost,
	})
	if err != nil {
		return nil, err
	}

	sessions, err := credjwt.NewManager(credjwt.Config{
		SessionTTL:    b.config.Session.TTL,
		SigningMethod: credjwt.SigningMethod(b.config.Session.SigningMethod),
		PrivateKey:    b.config.Session.PrivateKey,
		PublicKey:     b.config.Session.PublicKey,
		Issuer:        b.config.Session.Issuer,
		Leeway:        b.config.Session.Leeway,
	})
	if err != nil {
		return nil, err
	}

	notifier := b.notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}

	var throttle *rate.Limiter
	if b.config.Throttle.Enabled {
		throttle = rate.New(b.redis, rate.Config{
			EnableIPThrottle: b.config.Throttle.EnableIPThrottle,
			MaxAttempts:      b.config.Throttle.MaxAttempts,
			Cooldown:         b.config.Throttle.Cooldown,
		})
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		config:   b.config,
		store:    b.store,
		hasher:   hasher,
		sessions: sessions,
		notifier: notifier,
		throttle: throttle,
		audit:    newAuditDispatcher(b.config.Audit, b.sink),
		metrics:  NewMetrics(b.config.Metrics),
		now:      clock,
	}, nil
}
