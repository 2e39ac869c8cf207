package password

import (
	"strings"
	"testing"
)

func testConfig() Config {
	// MinCost keeps the test suite fast; production uses 12.
	return Config{Cost: MinCost}
}

func TestHashAndVerify(t *testing.T) {
	hasher, err := NewBcrypt(testConfig())
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	hash, err := hasher.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if !strings.HasPrefix(hash, "$2a$10$") {
		t.Fatalf("unexpected bcrypt prefix: %s", hash)
	}

	if !hasher.Verify("P@ssw0rd-Ascii", hash) {
		t.Fatal("expected password verification to succeed")
	}
}

func TestHashIsSalted(t *testing.T) {
	hasher, err := NewBcrypt(testConfig())
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	first, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	second, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if first == second {
		t.Fatal("expected two hashes of the same password to differ")
	}
	if !hasher.Verify("same-password", first) || !hasher.Verify("same-password", second) {
		t.Fatal("expected both salted hashes to verify")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	hasher, err := NewBcrypt(testConfig())
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	hash, err := hasher.Hash("correct-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if hasher.Verify("wrong-password", hash) {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher, err := NewBcrypt(testConfig())
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	for _, malformed := range []string{
		"",
		"not-a-hash",
		"$2a$10$tooshort",
		"$argon2id$v=19$m=65536,t=3,p=2$abc$def",
	} {
		if hasher.Verify("any-password", malformed) {
			t.Fatalf("expected verification against malformed hash %q to fail", malformed)
		}
	}
}

func TestHashRejectsOversizedPassword(t *testing.T) {
	hasher, err := NewBcrypt(testConfig())
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	if _, err := hasher.Hash(strings.Repeat("a", MaxPasswordBytes+1)); err == nil {
		t.Fatal("expected oversized password to be rejected")
	}
	if _, err := hasher.Hash(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Fatalf("expected password at the byte limit to be accepted: %v", err)
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	hasher, err := NewBcrypt(testConfig())
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}

	if _, err := hasher.Hash(""); err == nil {
		t.Fatal("expected empty password to be rejected")
	}
}

func TestNewBcryptCostBounds(t *testing.T) {
	if _, err := NewBcrypt(Config{Cost: MinCost - 1}); err == nil {
		t.Fatal("expected cost below floor to be rejected")
	}
	if _, err := NewBcrypt(Config{Cost: 32}); err == nil {
		t.Fatal("expected cost above ceiling to be rejected")
	}

	hasher, err := NewBcrypt(Config{})
	if err != nil {
		t.Fatalf("NewBcrypt error: %v", err)
	}
	if hasher.Cost() != DefaultCost {
		t.Fatalf("expected zero cost to select default %d, got %d", DefaultCost, hasher.Cost())
	}
}

func TestNeedsUpgrade(t *testing.T) {
	oldHasher, err := NewBcrypt(Config{Cost: MinCost})
	if err != nil {
		t.Fatalf("NewBcrypt(old) error: %v", err)
	}

	hash, err := oldHasher.Hash("test-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	newHasher, err := NewBcrypt(Config{Cost: MinCost + 1})
	if err != nil {
		t.Fatalf("NewBcrypt(new) error: %v", err)
	}

	upgrade, err := newHasher.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if !upgrade {
		t.Fatal("expected lower-cost hash to need an upgrade")
	}

	upgrade, err = oldHasher.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if upgrade {
		t.Fatal("expected same-cost hash to not need an upgrade")
	}
}
