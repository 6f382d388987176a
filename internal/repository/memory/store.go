// Package memory is an in-process domain.Store. It mirrors the unique
// indexes, foreign keys and cascades of the Postgres schema and is used in
// development mode and as the shared test fake.
package memory

import (
	"context"
	"sync"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
)

type state struct {
	nextID      int64
	users       map[int64]domain.User
	formations  map[int64]domain.Formation
	sessions    map[int64]domain.Session
	enrollments map[int64]domain.Enrollment
	signatures  map[int64]domain.Signature
	groups      map[int64]domain.Group
	briefs      map[int64]domain.Brief
}

func newState() *state {
	return &state{
		users:       map[int64]domain.User{},
		formations:  map[int64]domain.Formation{},
		sessions:    map[int64]domain.Session{},
		enrollments: map[int64]domain.Enrollment{},
		signatures:  map[int64]domain.Signature{},
		groups:      map[int64]domain.Group{},
		briefs:      map[int64]domain.Brief{},
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// clone deep-copies the state for rollback
func (s *state) clone() *state {
	c := &state{
		nextID:      s.nextID,
		users:       make(map[int64]domain.User, len(s.users)),
		formations:  make(map[int64]domain.Formation, len(s.formations)),
		sessions:    make(map[int64]domain.Session, len(s.sessions)),
		enrollments: make(map[int64]domain.Enrollment, len(s.enrollments)),
		signatures:  make(map[int64]domain.Signature, len(s.signatures)),
		groups:      make(map[int64]domain.Group, len(s.groups)),
		briefs:      make(map[int64]domain.Brief, len(s.briefs)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.formations {
		c.formations[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.enrollments {
		c.enrollments[k] = v
	}
	for k, v := range s.signatures {
		c.signatures[k] = v
	}
	for k, v := range s.groups {
		v.StudentIDs = append([]int64(nil), v.StudentIDs...)
		c.groups[k] = v
	}
	for k, v := range s.briefs {
		v.StudentIDs = append([]int64(nil), v.StudentIDs...)
		c.briefs[k] = v
	}
	return c
}

// locker guards access to the state. Inside a transaction the store mutex is
// already held, so repositories bound to the transaction use a no-op locker.
type locker interface {
	Lock()
	Unlock()
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// Store is a mutex-guarded in-memory domain.Store
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{st: newState()}
}

type repos struct {
	store *Store
	lock  locker
}

func (s *Store) bound(l locker) *repos {
	return &repos{store: s, lock: l}
}

func (r *repos) Users() domain.UserRepository             { return &userRepo{r} }
func (r *repos) Formations() domain.FormationRepository   { return &formationRepo{r} }
func (r *repos) Sessions() domain.SessionRepository       { return &sessionRepo{r} }
func (r *repos) Enrollments() domain.EnrollmentRepository { return &enrollmentRepo{r} }
func (r *repos) Signatures() domain.SignatureRepository   { return &signatureRepo{r} }
func (r *repos) Groups() domain.GroupRepository           { return &groupRepo{r} }
func (r *repos) Briefs() domain.BriefRepository           { return &briefRepo{r} }

// with runs fn under the bound lock
func (r *repos) with(fn func(st *state) error) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return fn(r.store.st)
}

func (s *Store) Users() domain.UserRepository             { return s.bound(&s.mu).Users() }
func (s *Store) Formations() domain.FormationRepository   { return s.bound(&s.mu).Formations() }
func (s *Store) Sessions() domain.SessionRepository       { return s.bound(&s.mu).Sessions() }
func (s *Store) Enrollments() domain.EnrollmentRepository { return s.bound(&s.mu).Enrollments() }
func (s *Store) Signatures() domain.SignatureRepository   { return s.bound(&s.mu).Signatures() }
func (s *Store) Groups() domain.GroupRepository           { return s.bound(&s.mu).Groups() }
func (s *Store) Briefs() domain.BriefRepository           { return s.bound(&s.mu).Briefs() }

// WithTx serialises fn against every other store access and restores the
// previous state if fn fails or panics
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx domain.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	return fn(ctx, s.bound(noopLocker{}))
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}
