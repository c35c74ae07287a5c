package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	signer, err := NewSigner("a-strong-secret", time.Hour, "test")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	token, err := signer.Sign("user-42")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	subject, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "user-42" {
		t.Fatalf("expected subject user-42, got %q", subject)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer, _ := NewSigner("secret-one", time.Hour, "test")
	other, _ := NewSigner("secret-two", time.Hour, "test")

	token, err := signer.Sign("user-1")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	signer, _ := NewSigner("a-strong-secret", time.Millisecond, "test")

	token, err := signer.Sign("user-1")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := signer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	signer, _ := NewSigner("a-strong-secret", time.Hour, "test")
	if _, err := signer.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSignRequiresUserID(t *testing.T) {
	signer, _ := NewSigner("a-strong-secret", time.Hour, "test")
	if _, err := signer.Sign("  "); err == nil {
		t.Fatal("expected error for blank user id")
	}
}

func TestProductionRequiresSecret(t *testing.T) {
	if _, err := NewSigner("", time.Hour, "production"); err == nil {
		t.Fatal("expected error for empty secret in production")
	}
	if _, err := NewSigner("", time.Hour, "development"); err != nil {
		t.Fatalf("dev fallback secret should be accepted: %v", err)
	}
}
