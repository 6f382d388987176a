package security

import (
	"errors"
	"testing"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
)

func TestRolePermissions(t *testing.T) {
	as := NewAuthorizationService(nil)

	tests := []struct {
		role domain.Role
		perm Permission
		want bool
	}{
		{domain.RoleAdmin, PermManageUsers, true},
		{domain.RoleAdmin, PermManageFormations, true},
		{domain.RoleTrainer, PermManageSessions, true},
		{domain.RoleTrainer, PermManageFormations, false},
		{domain.RoleTrainer, PermManageUsers, false},
		{domain.RoleLearner, PermSign, true},
		{domain.RoleLearner, PermReadSessions, true},
		{domain.RoleLearner, PermManageEnrollments, false},
		{domain.RoleLearner, PermReadUsers, false},
		{domain.Role("ghost"), PermReadSessions, false},
	}
	for _, tt := range tests {
		if got := as.HasPermission(tt.role, tt.perm); got != tt.want {
			t.Errorf("%s/%s: got %v want %v", tt.role, tt.perm, got, tt.want)
		}
	}

	if err := as.ValidatePermission(domain.RoleLearner, PermManageBriefs); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestResourceAccess(t *testing.T) {
	a := NewAuthorizationServiceV2(nil)
	own := ResourcePermission{ResourceType: ResourceSignature, OwnerID: 5, Action: ActionWrite}

	if err := a.ValidateResourceAccess(5, domain.RoleLearner, own); err != nil {
		t.Fatalf("owner denied: %v", err)
	}
	if err := a.ValidateResourceAccess(6, domain.RoleLearner, own); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
	if err := a.ValidateResourceAccess(6, domain.RoleTrainer, own); err != nil {
		t.Fatalf("trainer denied: %v", err)
	}
}
