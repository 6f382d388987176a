package domain

import (
	"context"
	"time"
)

// Enrollment registers a learner into a session
type Enrollment struct {
	ID         int64
	SessionID  int64
	StudentID  int64
	EnrolledAt time.Time
}

// EnrollmentPatch carries the fields supplied to a partial enrollment update
type EnrollmentPatch struct {
	SessionID *int64
	StudentID *int64
}

// EnrollmentRepository defines data access for enrollments
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *Enrollment) error
	GetByID(ctx context.Context, id int64) (*Enrollment, error)
	GetBySessionAndStudent(ctx context.Context, sessionID, studentID int64) (*Enrollment, error)
	CountBySession(ctx context.Context, sessionID int64) (int, error)
	List(ctx context.Context, page Page) ([]*Enrollment, error)
	ListBySession(ctx context.Context, sessionID int64) ([]*Enrollment, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*Enrollment, error)
	Update(ctx context.Context, enrollment *Enrollment) error
	Delete(ctx context.Context, id int64) error
}
