package security

import (
	"log/slog"
	"slices"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermReadUsers         Permission = "read_users"
	PermManageUsers       Permission = "manage_users"
	PermReadFormations    Permission = "read_formations"
	PermManageFormations  Permission = "manage_formations"
	PermReadSessions      Permission = "read_sessions"
	PermManageSessions    Permission = "manage_sessions"
	PermReadEnrollments   Permission = "read_enrollments"
	PermManageEnrollments Permission = "manage_enrollments"
	PermReadSignatures    Permission = "read_signatures"
	PermSign              Permission = "sign"
	PermDeleteSignatures  Permission = "delete_signatures"
	PermReadGroups        Permission = "read_groups"
	PermManageGroups      Permission = "manage_groups"
	PermReadBriefs        Permission = "read_briefs"
	PermManageBriefs      Permission = "manage_briefs"
	PermChangePassword    Permission = "change_password"
)

// readAll is granted to every authenticated role
var readAll = []Permission{
	PermReadFormations,
	PermReadSessions,
	PermReadEnrollments,
	PermReadSignatures,
	PermReadGroups,
	PermReadBriefs,
	PermSign,
	PermChangePassword,
}

// RolePermissions maps roles to their permissions
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleAdmin: append(slices.Clone(readAll),
		PermReadUsers,
		PermManageUsers,
		PermManageFormations,
		PermManageSessions,
		PermManageEnrollments,
		PermDeleteSignatures,
		PermManageGroups,
		PermManageBriefs,
	),
	domain.RoleTrainer: append(slices.Clone(readAll),
		PermReadUsers,
		PermManageSessions,
		PermManageEnrollments,
		PermDeleteSignatures,
		PermManageGroups,
		PermManageBriefs,
	),
	domain.RoleLearner: slices.Clone(readAll),
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	return slices.Contains(RolePermissions[role], permission)
}

// ValidatePermission validates that a role has a specific permission
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return domain.ErrForbidden
	}
	return nil
}

// GetRolePermissions returns all permissions for a role
func (as *AuthorizationService) GetRolePermissions(role domain.Role) []Permission {
	return RolePermissions[role]
}
