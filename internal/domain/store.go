package domain

import "context"

// MaxPageSize caps list requests
const MaxPageSize = 100

// Page is an offset/limit window over an ordered listing
type Page struct {
	Offset int
	Limit  int
}

// Normalize clamps the page to sane bounds
func (p Page) Normalize() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 || p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Repositories groups the per-entity repositories bound to one connection
// or transaction
type Repositories interface {
	Users() UserRepository
	Formations() FormationRepository
	Sessions() SessionRepository
	Enrollments() EnrollmentRepository
	Signatures() SignatureRepository
	Groups() GroupRepository
	Briefs() BriefRepository
}

// Store is the entity store. WithTx runs fn atomically: either every write
// made through tx is committed or none is.
type Store interface {
	Repositories
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	Ping(ctx context.Context) error
	Close() error
}
