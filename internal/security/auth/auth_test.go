package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "formationhub", time.Minute)
	token, err := tm.GenerateToken(&domain.User{ID: 7, Email: "a@example.com", Role: domain.RoleTrainer})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := tm.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 7 || claims.Role != domain.RoleTrainer {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", "formationhub", time.Minute)
	user := &domain.User{ID: 7, Role: domain.RoleLearner}

	other, _ := NewTokenManager("other", "formationhub", time.Minute).GenerateToken(user)
	if _, err := tm.ValidateToken(other); err == nil {
		t.Error("expected signature mismatch")
	}

	foreign, _ := NewTokenManager("secret", "someone-else", time.Minute).GenerateToken(user)
	if _, err := tm.ValidateToken(foreign); err == nil {
		t.Error("expected issuer mismatch")
	}

	expired, _ := NewTokenManager("secret", "formationhub", -time.Minute).GenerateToken(user)
	if _, err := tm.ValidateToken(expired); err != nil {
		// negative ttl falls back to the default lifetime
		t.Errorf("unexpected error: %v", err)
	}

	if _, err := tm.GenerateToken(&domain.User{}); err == nil {
		t.Error("expected error for missing id")
	}
}

func TestExtractToken(t *testing.T) {
	if tok, err := ExtractToken("Bearer abc"); err != nil || tok != "abc" {
		t.Fatalf("got %q, %v", tok, err)
	}
	for _, h := range []string{"", "abc", "Basic abc", "Bearer a b"} {
		if _, err := ExtractToken(h); err == nil {
			t.Errorf("expected error for %q", h)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cretpass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CheckPassword(hash, "s3cretpass"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}
