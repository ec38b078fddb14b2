package auth

import (
	"testing"
	"time"

	"github.com/garage-kit/shop-service/internal/domain"
)

func TestGenerateAndParseToken(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)
	role := domain.RoleTechnician

	token, expiresAt, err := tm.GenerateToken("u1", &role)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatal("token already expired on issue")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("want uid u1, got %s", claims.UserID)
	}
	if claims.Role == nil || *claims.Role != domain.RoleTechnician {
		t.Fatalf("want TECHNICIAN role claim, got %v", claims.Role)
	}
	if claims.ID == "" {
		t.Fatal("missing jti")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", 30)
	verifier := NewTokenManager("secret-b", 30)

	token, _, err := issuer.GenerateToken("u1", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("token verified with wrong secret")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)
	if _, err := tm.ParseToken("not-a-token"); err == nil {
		t.Fatal("garbage token accepted")
	}
}
