package security

import (
	"log/slog"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
)

// ResourceType identifies the kind of resource being accessed
type ResourceType string

const (
	ResourceSignature ResourceType = "signature"
	ResourceUser      ResourceType = "user"
)

// Action identifies what operation is being performed
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// ResourcePermission checks fine-grained permissions on a specific resource
type ResourcePermission struct {
	ResourceType ResourceType
	ResourceID   int64
	OwnerID      int64 // User the resource belongs to
	Action       Action
}

// AuthorizationServiceV2 extends AuthorizationService with resource-level checks
type AuthorizationServiceV2 struct {
	logger *slog.Logger
}

// NewAuthorizationServiceV2 creates a new resource-aware authorization service
func NewAuthorizationServiceV2(logger *slog.Logger) *AuthorizationServiceV2 {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationServiceV2{logger: logger}
}

// ValidateResourceAccess restricts learners to resources they own.
// Admins and trainers act on behalf of learners.
func (a *AuthorizationServiceV2) ValidateResourceAccess(userID int64, role domain.Role, perm ResourcePermission) error {
	if role == domain.RoleAdmin || role == domain.RoleTrainer {
		return nil
	}

	if perm.OwnerID != userID {
		a.logger.Warn("resource access denied",
			slog.Int64("user_id", userID),
			slog.Int64("resource_id", perm.ResourceID),
			slog.String("resource_type", string(perm.ResourceType)),
			slog.Int64("owner_id", perm.OwnerID),
			slog.String("action", string(perm.Action)),
		)
		return domain.ErrForbidden.WithMessage("You can only access your own " + string(perm.ResourceType) + "s.")
	}
	return nil
}
