package token

import (
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	secret, err := NewResetSecret()
	if err != nil {
		t.Fatalf("NewResetSecret error: %v", err)
	}

	encoded := Encode(secret)
	if strings.ContainsAny(encoded, "+/=") {
		t.Fatalf("expected unpadded base64url, got %q", encoded)
	}
	if len(encoded) != 43 {
		t.Fatalf("expected 43-char token for 32-byte secret, got %d", len(encoded))
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if decoded != secret {
		t.Fatal("decoded secret does not match original")
	}
}

func TestSecretsAreUnique(t *testing.T) {
	a, err := NewResetSecret()
	if err != nil {
		t.Fatalf("NewResetSecret error: %v", err)
	}
	b, err := NewResetSecret()
	if err != nil {
		t.Fatalf("NewResetSecret error: %v", err)
	}
	if a == b {
		t.Fatal("two secrets must not collide")
	}
}

func TestHashIsStable(t *testing.T) {
	secret, err := NewResetSecret()
	if err != nil {
		t.Fatalf("NewResetSecret error: %v", err)
	}

	if Hash(secret) != Hash(secret) {
		t.Fatal("hash must be deterministic")
	}
	if Hash(secret) == secret {
		t.Fatal("hash must differ from the secret")
	}
}

func TestDecodeRejectsMalformedTokens(t *testing.T) {
	for _, malformed := range []string{
		"",
		"not base64!",
		"c2hvcnQ",
		strings.Repeat("A", 44),
	} {
		if _, err := Decode(malformed); err == nil {
			t.Fatalf("expected Decode(%q) to fail", malformed)
		}
	}
}
