package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/security/auth"
)

// AuthService handles authentication operations
type AuthService struct {
	users  domain.UserRepository
	tokens *auth.TokenManager
	logger *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(users domain.UserRepository, tokens *auth.TokenManager, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// LoginResult represents login response
type LoginResult struct {
	AccessToken        string `json:"access_token"`
	TokenType          string `json:"token_type"`
	ExpiresIn          int    `json:"expires_in"` // seconds
	MustChangePassword bool   `json:"must_change_password"`
}

// Login authenticates a user and returns an access token. Unknown emails and
// wrong passwords fail with the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("login attempt with unknown email")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed with wrong password", slog.Int64("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return &LoginResult{
		AccessToken:        token,
		TokenType:          "Bearer",
		ExpiresIn:          int(s.tokens.TTL().Seconds()),
		MustChangePassword: user.MustChangePassword,
	}, nil
}

// ChangePassword verifies the current password, stores the new one and
// clears the must-change flag
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if len(next) < auth.MinPasswordLength {
		return domain.ErrWeakPassword
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFound(err, domain.ErrUserNotFound)
	}

	if err := auth.CheckPassword(user.PasswordHash, current); err != nil {
		return domain.ErrInvalidCredentials.WithMessage("Current password is incorrect.")
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.String("error", err.Error()))
		return err
	}

	user.PasswordHash = hash
	user.MustChangePassword = false
	if err := s.users.Update(ctx, user); err != nil {
		return notFound(err, domain.ErrUserNotFound)
	}

	s.logger.Info("user changed password", slog.Int64("user_id", userID))
	return nil
}
