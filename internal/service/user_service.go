package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/security/auth"
	"go.opentelemetry.io/otel/attribute"
)

// UserService manages accounts
type UserService struct {
	store  domain.Store
	logger *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(store domain.Store, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{store: store, logger: logger}
}

// CreateUserInput carries the fields of a new account
type CreateUserInput struct {
	Email     string
	FirstName string
	LastName  string
	Role      domain.Role
	Password  string
}

// Create registers a user. New accounts must change their password on first login.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (_ *domain.User, err error) {
	ctx, op := startOperation(ctx, "user.create")
	defer func() { op.end(err) }()

	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return nil, domain.ErrInvalidRequest.WithMessage("email is required.")
	}
	if !in.Role.Valid() {
		return nil, domain.ErrInvalidRequest.WithMessage("Unknown role.")
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:              email,
		FirstName:          strings.TrimSpace(in.FirstName),
		LastName:           strings.TrimSpace(in.LastName),
		Role:               in.Role,
		PasswordHash:       hash,
		MustChangePassword: true,
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		taken, err := exists(tx.Users().GetByEmail(ctx, email))
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrEmailAlreadyUsed
		}
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		slog.Int64("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return u, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.store.Users().GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, page domain.Page) ([]*domain.User, error) {
	return s.store.Users().List(ctx, page.Normalize())
}

// Update applies the supplied fields; a changed email is re-checked for uniqueness
func (s *UserService) Update(ctx context.Context, id int64, patch domain.UserPatch) (_ *domain.User, err error) {
	ctx, op := startOperation(ctx, "user.update", attribute.Int64("user_id", id))
	defer func() { op.end(err) }()

	var hash string
	if patch.Password != nil {
		if len(*patch.Password) < auth.MinPasswordLength {
			return nil, domain.ErrWeakPassword
		}
		if hash, err = auth.HashPassword(*patch.Password); err != nil {
			return nil, err
		}
	}

	var user *domain.User
	err = s.store.WithTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		current, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return notFound(err, domain.ErrUserNotFound)
		}
		next := *current

		if patch.Email != nil {
			email := domain.NormalizeEmail(*patch.Email)
			if email == "" {
				return domain.ErrInvalidRequest.WithMessage("email is required.")
			}
			if email != current.Email {
				taken, err := exists(tx.Users().GetByEmail(ctx, email))
				if err != nil {
					return err
				}
				if taken {
					return domain.ErrEmailAlreadyUsed
				}
			}
			next.Email = email
		}
		if patch.FirstName != nil {
			next.FirstName = strings.TrimSpace(*patch.FirstName)
		}
		if patch.LastName != nil {
			next.LastName = strings.TrimSpace(*patch.LastName)
		}
		if patch.Role != nil {
			if !patch.Role.Valid() {
				return domain.ErrInvalidRequest.WithMessage("Unknown role.")
			}
			next.Role = *patch.Role
		}
		if hash != "" {
			next.PasswordHash = hash
			next.MustChangePassword = true
		}

		if err := tx.Users().Update(ctx, &next); err != nil {
			return notFound(err, domain.ErrUserNotFound)
		}
		user = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated", slog.Int64("user_id", id))
	return user, nil
}

// Delete removes a user. Users still teaching a session cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id int64) (err error) {
	ctx, op := startOperation(ctx, "user.delete", attribute.Int64("user_id", id))
	defer func() { op.end(err) }()

	if err := s.store.Users().Delete(ctx, id); err != nil {
		return notFound(err, domain.ErrUserNotFound)
	}
	s.logger.Info("user deleted", slog.Int64("user_id", id))
	return nil
}
