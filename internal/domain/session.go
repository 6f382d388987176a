package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SessionStatus is the lifecycle state of a session
type SessionStatus string

const (
	StatusScheduled SessionStatus = "scheduled"
	StatusOngoing   SessionStatus = "ongoing"
	StatusCompleted SessionStatus = "completed"
)

// ParseSessionStatus converts s into a SessionStatus, rejecting unknown values
func ParseSessionStatus(s string) (SessionStatus, error) {
	st := SessionStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown session status %q", s)
	}
	return st, nil
}

func (s SessionStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusOngoing, StatusCompleted:
		return true
	}
	return false
}

// Session is a scheduled instance of a formation taught by one trainer.
// StartDate is strictly before EndDate. Both are globally unique.
type Session struct {
	ID          int64
	FormationID int64
	TeacherID   int64
	StartDate   time.Time
	EndDate     time.Time
	CapacityMax int
	Status      SessionStatus
}

// Contains reports whether day falls within the session's calendar days, inclusive
func (s *Session) Contains(day time.Time) bool {
	d := Day(day)
	return !d.Before(Day(s.StartDate)) && !d.After(Day(s.EndDate))
}

// StatusAt returns the status implied by the session dates at instant now
func (s *Session) StatusAt(now time.Time) SessionStatus {
	switch {
	case !now.Before(s.EndDate):
		return StatusCompleted
	case !now.Before(s.StartDate):
		return StatusOngoing
	default:
		return StatusScheduled
	}
}

// SessionPatch carries the fields supplied to a partial session update
type SessionPatch struct {
	FormationID *int64
	TeacherID   *int64
	StartDate   *time.Time
	EndDate     *time.Time
	CapacityMax *int
	Status      *SessionStatus
}

// SessionRepository defines data access for sessions
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id int64) (*Session, error)
	// GetByIDForUpdate reads the session and locks its row until the
	// surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*Session, error)
	GetByStartDate(ctx context.Context, start time.Time) (*Session, error)
	GetByEndDate(ctx context.Context, end time.Time) (*Session, error)
	GetByFormationAndTeacher(ctx context.Context, formationID, teacherID int64) (*Session, error)
	List(ctx context.Context, page Page) ([]*Session, error)
	ListByFormation(ctx context.Context, formationID int64) ([]*Session, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]*Session, error)
	Update(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id int64) error
	// SyncStatuses moves sessions to the status implied by now and returns
	// the number of rows changed
	SyncStatuses(ctx context.Context, now time.Time) (int64, error)
}
