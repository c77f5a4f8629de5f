package internal

import (
	"strings"
	"testing"
)

func TestNewOpaqueTokenLengthAndUniqueness(t *testing.T) {
	a, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("NewOpaqueToken failed: %v", err)
	}
	b, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("NewOpaqueToken failed: %v", err)
	}
	if len(a) != 64 || len(b) != 64 {
		t.Fatalf("expected 64 hex chars, got %d and %d", len(a), len(b))
	}
	if a == b {
		t.Fatal("two opaque tokens collided")
	}
}

func TestNewOTPRejectsInvalidLength(t *testing.T) {
	for _, digits := range []int{0, 3, 11} {
		if _, err := NewOTP(digits); err == nil {
			t.Fatalf("expected error for %d digits", digits)
		}
	}
}

func TestNewOTPShapeAndLeadingDigit(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := NewOTP(6)
		if err != nil {
			t.Fatalf("NewOTP failed: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		if strings.Trim(code, "0123456789") != "" {
			t.Fatalf("expected numeric code, got %q", code)
		}
		if code[0] == '0' {
			t.Fatalf("expected non-zero leading digit, got %q", code)
		}
	}
}

func TestNewOTPLeadingDigitCoversFullRange(t *testing.T) {
	seen := make(map[byte]bool)
	for i := 0; i < 2000; i++ {
		code, err := NewOTP(6)
		if err != nil {
			t.Fatalf("NewOTP failed: %v", err)
		}
		seen[code[0]] = true
	}
	for d := byte('1'); d <= '9'; d++ {
		if !seen[d] {
			t.Fatalf("leading digit %c never produced", d)
		}
	}
	if seen['0'] {
		t.Fatal("leading zero produced")
	}
}

func TestTokensEqual(t *testing.T) {
	if !TokensEqual("abc123", "abc123") {
		t.Fatal("expected equal tokens to match")
	}
	if TokensEqual("abc123", "abc124") {
		t.Fatal("expected different tokens to mismatch")
	}
	if TokensEqual("abc", "abcd") {
		t.Fatal("expected different-length tokens to mismatch")
	}
}
