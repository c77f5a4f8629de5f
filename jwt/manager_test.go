package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"
)

var hsKey = []byte("0123456789abcdef0123456789abcdef")

func newHSManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: hsKey, Issuer: "phoneauth-test"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestAccessTokenRoundtrip(t *testing.T) {
	m := newHSManager(t)
	now := time.Now()

	token, err := m.CreateAccess("42", 2*time.Minute, now)
	if err != nil {
		t.Fatalf("create access: %v", err)
	}

	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UID != "42" {
		t.Errorf("uid = %q, want %q", claims.UID, "42")
	}
}

func TestRefreshTokenRoundtrip(t *testing.T) {
	m := newHSManager(t)
	now := time.Now()

	token, err := m.CreateRefresh("42", "778899001", 24*time.Hour, now)
	if err != nil {
		t.Fatalf("create refresh: %v", err)
	}

	claims, err := m.ParseRefresh(token)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if claims.UID != "42" || claims.Phone != "778899001" {
		t.Errorf("claims = %q/%q, want 42/778899001", claims.UID, claims.Phone)
	}
}

func TestExpiredTokenIsDistinguished(t *testing.T) {
	m := newHSManager(t)

	token, err := m.CreateAccess("42", 2*time.Minute, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("create access: %v", err)
	}

	if _, err := m.ParseAccess(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	m := newHSManager(t)

	token, err := m.CreateAccess("42", 2*time.Minute, time.Now())
	if err != nil {
		t.Fatalf("create access: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := m.ParseAccess(tampered); err == nil || errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected a signature failure, got %v", err)
	}
}

func TestWrongKeyRejected(t *testing.T) {
	m := newHSManager(t)
	other, err := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: []byte("ffffffffffffffffffffffffffffffff"), Issuer: "phoneauth-test"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := m.CreateRefresh("42", "778899001", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("create refresh: %v", err)
	}
	if _, err := other.ParseRefresh(token); err == nil {
		t.Fatal("expected verification failure with a different key")
	}
}

func TestEd25519Roundtrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	m, err := NewManager(Config{SigningMethod: MethodEd25519, PrivateKey: priv, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := m.CreateAccess("7", time.Minute, time.Now())
	if err != nil {
		t.Fatalf("create access: %v", err)
	}
	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UID != "7" {
		t.Errorf("uid = %q, want 7", claims.UID)
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{SigningMethod: MethodHS256}); err == nil {
		t.Error("hs256 without key should fail")
	}
	if _, err := NewManager(Config{SigningMethod: MethodEd25519, PrivateKey: []byte("short")}); err == nil {
		t.Error("bad ed25519 key should fail")
	}
	if _, err := NewManager(Config{SigningMethod: "rs256", PrivateKey: hsKey}); err == nil {
		t.Error("unsupported method should fail")
	}
	if _, err := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: hsKey, Leeway: time.Hour}); err == nil {
		t.Error("excessive leeway should fail")
	}
}
