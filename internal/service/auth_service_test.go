package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/repository/memory"
	"github.com/aryan0dhankhar/formationhub/internal/security/auth"
)

func TestLoginAndChangePassword(t *testing.T) {
	store := memory.NewStore()
	users := NewUserService(store, nil)
	tokens := auth.NewTokenManager("secret", "formationhub", 15*time.Minute)
	s := NewAuthService(store.Users(), tokens, nil)
	ctx := context.Background()

	u, err := users.Create(ctx, CreateUserInput{Email: "alice@example.com", Role: domain.RoleTrainer, Password: "Password123"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := s.Login(ctx, "ALICE@example.com", "Password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.AccessToken == "" || res.TokenType != "Bearer" || res.ExpiresIn != 900 || !res.MustChangePassword {
		t.Fatalf("unexpected login result %+v", res)
	}
	claims, err := tokens.ValidateToken(res.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != u.ID || claims.Role != domain.RoleTrainer {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := s.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
	if _, err := s.Login(ctx, "nobody@example.com", "Password123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}

	if err := s.ChangePassword(ctx, u.ID, "Password123", "short"); !errors.Is(err, domain.ErrWeakPassword) {
		t.Fatalf("expected WEAK_PASSWORD, got %v", err)
	}
	if err := s.ChangePassword(ctx, u.ID, "wrong", "NewPassword456"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
	if err := s.ChangePassword(ctx, u.ID, "Password123", "NewPassword456"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	res, err = s.Login(ctx, "alice@example.com", "NewPassword456")
	if err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if res.MustChangePassword {
		t.Fatal("must_change_password not cleared")
	}
}
