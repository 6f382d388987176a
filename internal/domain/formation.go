package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MaxDurationHours bounds Formation.DurationHours
const MaxDurationHours = 10000

// Level is the difficulty of a formation
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// ParseLevel converts s into a Level, rejecting unknown values
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q", s)
	}
	return l, nil
}

func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Formation is a course definition in the catalogue
type Formation struct {
	ID            int64
	Title         string
	Description   string
	DurationHours int
	Level         Level
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FormationPatch carries the fields supplied to a partial formation update
type FormationPatch struct {
	Title         *string
	Description   *string
	DurationHours *int
	Level         *Level
}

// FormationFilter narrows formation listings
type FormationFilter struct {
	Page
	Level         Level  // empty means any
	TitleContains string // case-insensitive substring
}

// FormationRepository defines data access for formations
type FormationRepository interface {
	Create(ctx context.Context, formation *Formation) error
	GetByID(ctx context.Context, id int64) (*Formation, error)
	// GetByTitle matches case-insensitively
	GetByTitle(ctx context.Context, title string) (*Formation, error)
	List(ctx context.Context, filter FormationFilter) ([]*Formation, error)
	Update(ctx context.Context, formation *Formation) error
	Delete(ctx context.Context, id int64) error
}
