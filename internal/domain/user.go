package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of user roles
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "trainer"
	RoleLearner Role = "learner"
)

// ParseRole converts s into a Role, rejecting unknown values
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTrainer, RoleLearner:
		return true
	}
	return false
}

// User represents a system user (admin, trainer or learner)
type User struct {
	ID                 int64
	Email              string // Unique, stored lower-cased
	FirstName          string
	LastName           string
	Role               Role
	PasswordHash       string // Bcrypt hashed password (not returned in API)
	MustChangePassword bool
	RegisteredAt       time.Time
	UpdatedAt          time.Time
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserPatch carries the fields supplied to a partial user update
type UserPatch struct {
	Email     *string
	FirstName *string
	LastName  *string
	Role      *Role
	Password  *string
}

// UserRepository defines data access for users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, page Page) ([]*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id int64) error
}
