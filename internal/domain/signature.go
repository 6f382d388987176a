package domain

import (
	"context"
	"time"
)

// DateLayout is the wire format of calendar days
const DateLayout = "2006-01-02"

// Day truncates t to the start of its calendar day in UTC
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a day-start UTC timestamp
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// Signature is one day of attendance by an enrolled learner
type Signature struct {
	ID        int64
	SessionID int64
	UserID    int64
	Date      time.Time // always a UTC day start
}

// SignatureRepository defines data access for attendance signatures
type SignatureRepository interface {
	Create(ctx context.Context, signature *Signature) error
	GetByID(ctx context.Context, id int64) (*Signature, error)
	Exists(ctx context.Context, sessionID, userID int64, day time.Time) (bool, error)
	ListBySessionAndDate(ctx context.Context, sessionID int64, day time.Time) ([]*Signature, error)
	ListBySessionAndUser(ctx context.Context, sessionID, userID int64) ([]*Signature, error)
	// CountOutsideDays counts a session's signatures dated before first or after last
	CountOutsideDays(ctx context.Context, sessionID int64, first, last time.Time) (int, error)
	Delete(ctx context.Context, id int64) error
}
