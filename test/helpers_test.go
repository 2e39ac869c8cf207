package test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/credgate/credgate"
	"github.com/credgate/credgate/credstore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	// Anchored to real time so issued session tokens stay verifiable: exp
	// validation inside the JWT layer always uses the wall clock.
	return &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type captureNotifier struct {
	mu     sync.Mutex
	tokens []string
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, _, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tokens = append(n.tokens, token)
	return nil
}

func (n *captureNotifier) lastToken() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.tokens) == 0 {
		return ""
	}
	return n.tokens[len(n.tokens)-1]
}

type fixture struct {
	service  *credgate.Service
	store    *credstore.Store
	notifier *captureNotifier
	clock    *fakeClock
	redis    *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run error: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := credstore.New(client, "cg")
	clock := newFakeClock()
	notifier := &captureNotifier{}

	cfg := credgate.DefaultConfig()
	cfg.Password.Cost = 10
	cfg.Session.SigningMethod = "hs256"
	cfg.Session.PrivateKey = []byte("0123456789abcdef0123456789abcdef")

	service, err := credgate.New().
		WithConfig(cfg).
		WithStore(store).
		WithNotifier(notifier).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	t.Cleanup(service.Close)

	return &fixture{
		service:  service,
		store:    store,
		notifier: notifier,
		clock:    clock,
		redis:    mr,
	}
}
