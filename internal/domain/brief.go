package domain

import (
	"context"
	"time"
)

// Brief is an assignment tied to a session, assigned to a set of learners
type Brief struct {
	ID               int64
	Title            string
	Description      string
	DeliveryDeadline time.Time
	Order            int
	SessionID        int64
	StudentIDs       []int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BriefPatch carries the fields supplied to a partial brief update
type BriefPatch struct {
	Title            *string
	Description      *string
	DeliveryDeadline *time.Time
	Order            *int
	SessionID        *int64
	StudentIDs       []int64 // nil means unchanged
	GroupID          *int64
}

// BriefRepository defines data access for briefs and their assignees
type BriefRepository interface {
	Create(ctx context.Context, brief *Brief) error
	GetByID(ctx context.Context, id int64) (*Brief, error)
	List(ctx context.Context, page Page) ([]*Brief, error)
	ListBySession(ctx context.Context, sessionID int64) ([]*Brief, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*Brief, error)
	// Update saves scalar fields and, when replaceStudents is set, the assignee list
	Update(ctx context.Context, brief *Brief, replaceStudents bool) error
	Delete(ctx context.Context, id int64) error
}
