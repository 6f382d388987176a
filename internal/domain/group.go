package domain

import "context"

// Group is a named subset of learners within a session
type Group struct {
	ID         int64
	SessionID  int64
	Name       string
	StudentIDs []int64
}

// GroupRepository defines data access for groups and their members.
// Members are loaded with the group.
type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	GetByID(ctx context.Context, id int64) (*Group, error)
	ListBySession(ctx context.Context, sessionID int64) ([]*Group, error)
	// Update saves the name and, when replaceMembers is set, replaces the member list
	Update(ctx context.Context, group *Group, replaceMembers bool) error
	Delete(ctx context.Context, id int64) error
}
