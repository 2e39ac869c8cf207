package credgate

import (
	"context"
	"crypto/subtle"
	"sync"
	"testing"
	"time"
)

/*
====================================
MOCK STORE
====================================
*/

// mockStore is an in-memory CredentialStore with the same compare-and-swap
// semantics as the Redis implementation. The mutex makes every operation a
// single atomic step, which is exactly what the contract demands.
type mockStore struct {
	mu         sync.Mutex
	accounts   map[string]Account
	byEmail    map[string]string
	byUsername map[string]string
	byReset    map[[32]byte]string

	findErr   error
	createErr error
	updateErr error

	findByEmailCalls       int
	findByIDCalls          int
	findByResetCalls       int
	createCalls            int
	conditionalUpdateCalls int
	conflictCount          int
}

func newMockStore() *mockStore {
	return &mockStore{
		accounts:   make(map[string]Account),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
		byReset:    make(map[[32]byte]string),
	}
}

func copyAccount(a Account) Account {
	out := a
	if a.LockUntil != nil {
		lock := *a.LockUntil
		out.LockUntil = &lock
	}
	if a.ResetTokenHash != nil {
		hash := *a.ResetTokenHash
		out.ResetTokenHash = &hash
	}
	if a.ResetExpires != nil {
		expires := *a.ResetExpires
		out.ResetExpires = &expires
	}
	if a.LastLogin != nil {
		last := *a.LastLogin
		out.LastLogin = &last
	}
	return out
}

// put seeds an account directly, bypassing CreateUnique bookkeeping checks.
func (m *mockStore) put(a Account) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts[a.ID] = copyAccount(a)
	m.byEmail[a.Email] = a.ID
	m.byUsername[a.Username] = a.ID
	if a.ResetTokenHash != nil {
		m.byReset[*a.ResetTokenHash] = a.ID
	}
}

func (m *mockStore) get(id string) (Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	return copyAccount(a), ok
}

func (m *mockStore) FindByEmail(_ context.Context, email string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findByEmailCalls++

	if m.findErr != nil {
		return Account{}, m.findErr
	}

	id, ok := m.byEmail[email]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return copyAccount(m.accounts[id]), nil
}

func (m *mockStore) FindByUsername(_ context.Context, username string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return Account{}, m.findErr
	}

	id, ok := m.byUsername[username]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return copyAccount(m.accounts[id]), nil
}

func (m *mockStore) FindByID(_ context.Context, id string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findByIDCalls++

	if m.findErr != nil {
		return Account{}, m.findErr
	}

	a, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return copyAccount(a), nil
}

func (m *mockStore) FindByResetTokenHash(_ context.Context, hash [32]byte) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findByResetCalls++

	if m.findErr != nil {
		return Account{}, m.findErr
	}

	id, ok := m.byReset[hash]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return copyAccount(m.accounts[id]), nil
}

func (m *mockStore) CreateUnique(_ context.Context, account Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++

	if m.createErr != nil {
		return m.createErr
	}

	if _, taken := m.byEmail[account.Email]; taken {
		return &DuplicateKeyError{Field: "email"}
	}
	if _, taken := m.byUsername[account.Username]; taken {
		return &DuplicateKeyError{Field: "username"}
	}

	m.accounts[account.ID] = copyAccount(account)
	m.byEmail[account.Email] = account.ID
	m.byUsername[account.Username] = account.ID
	return nil
}

func (m *mockStore) ConditionalUpdate(_ context.Context, id string, expected Expected, change Change) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conditionalUpdateCalls++

	if m.updateErr != nil {
		return Account{}, m.updateErr
	}

	account, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}

	if expected.LoginAttempts != nil && account.LoginAttempts != *expected.LoginAttempts {
		m.conflictCount++
		return Account{}, ErrConflict
	}
	if expected.ResetTokenHash != nil {
		if account.ResetTokenHash == nil ||
			subtle.ConstantTimeCompare(account.ResetTokenHash[:], expected.ResetTokenHash[:]) != 1 {
			m.conflictCount++
			return Account{}, ErrConflict
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
		hash := *change.ResetTokenHash
		expires := *change.ResetExpires
		account.ResetTokenHash = &hash
		account.ResetExpires = &expires
	}
	if change.LastLogin != nil {
		last := *change.LastLogin
		account.LastLogin = &last
	}

	if oldReset != nil && (account.ResetTokenHash == nil || *account.ResetTokenHash != *oldReset) {
		delete(m.byReset, *oldReset)
	}
	if account.ResetTokenHash != nil {
		m.byReset[*account.ResetTokenHash] = id
	}

	m.accounts[id] = copyAccount(account)
	return copyAccount(account), nil
}

func (m *mockStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}

	delete(m.accounts, id)
	delete(m.byEmail, account.Email)
	delete(m.byUsername, account.Username)
	if account.ResetTokenHash != nil {
		delete(m.byReset, *account.ResetTokenHash)
	}
	return nil
}

/*
====================================
MOCK NOTIFIER + CLOCK
====================================
*/

type mockNotifier struct {
	mu      sync.Mutex
	sendErr error
	emails  []string
	tokens  []string
}

func (n *mockNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.sendErr != nil {
		return n.sendErr
	}
	n.emails = append(n.emails, email)
	n.tokens = append(n.tokens, token)
	return nil
}

func (n *mockNotifier) lastToken() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.tokens) == 0 {
		return ""
	}
	return n.tokens[len(n.tokens)-1]
}

func (n *mockNotifier) sent() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.tokens)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	// Anchored to real time so issued session tokens stay verifiable: exp
	// validation inside the JWT layer always uses the wall clock.
	return &testClock{now: time.Now().UTC().Truncate(time.Second)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

/*
====================================
SERVICE FIXTURE
====================================
*/

func testServiceConfig() Config {
	cfg := DefaultConfig()
	// MinCost keeps bcrypt fast in tests.
	cfg.Password.Cost = 10
	cfg.Session.SigningMethod = "hs256"
	cfg.Session.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

func newTestService(t *testing.T, store CredentialStore, clock *testClock, notifier Notifier, mutate func(*Config)) *Service {
	t.Helper()

	cfg := testServiceConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	builder := New().
		WithConfig(cfg).
		WithStore(store).
		WithNotifier(notifier).
		WithClock(clock.Now)

	service, err := builder.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	t.Cleanup(service.Close)

	return service
}

func registerTestAccount(t *testing.T, service *Service, username, email, plaintext string) Account {
	t.Helper()

	result, err := service.Register(context.Background(), username, email, plaintext)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return result.Account
}
