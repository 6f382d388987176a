package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
)

func sortedByID[T any](m map[int64]T, keep func(T) bool) []int64 {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func paginate(ids []int64, page domain.Page) []int64 {
	page = page.Normalize()
	if page.Offset >= len(ids) {
		return nil
	}
	end := min(page.Offset+page.Limit, len(ids))
	return ids[page.Offset:end]
}

func uniqueIDs(ids []int64) []int64 {
	out := append([]int64{}, ids...)
	slices.Sort(out)
	return slices.Compact(out)
}

// ---- users ----

type userRepo struct{ *repos }

func (r *userRepo) Create(ctx context.Context, u *domain.User) error {
	return r.with(func(st *state) error {
		for _, other := range st.users {
			if strings.EqualFold(other.Email, u.Email) {
				return domain.ErrEmailAlreadyUsed
			}
		}
		now := time.Now().UTC()
		u.ID = st.id()
		u.RegisteredAt, u.UpdatedAt = now, now
		st.users[u.ID] = *u
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var out *domain.User
	err := r.with(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.with(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				out = &u
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}

func (r *userRepo) List(ctx context.Context, page domain.Page) ([]*domain.User, error) {
	out := []*domain.User{}
	err := r.with(func(st *state) error {
		for _, id := range paginate(sortedByID(st.users, nil), page) {
			u := st.users[id]
			out = append(out, &u)
		}
		return nil
	})
	return out, err
}

func (r *userRepo) Update(ctx context.Context, u *domain.User) error {
	return r.with(func(st *state) error {
		if _, ok := st.users[u.ID]; !ok {
			return domain.ErrNotFound
		}
		for id, other := range st.users {
			if id != u.ID && strings.EqualFold(other.Email, u.Email) {
				return domain.ErrEmailAlreadyUsed
			}
		}
		u.UpdatedAt = time.Now().UTC()
		st.users[u.ID] = *u
		return nil
	})
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	return r.with(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return domain.ErrNotFound
		}
		for _, s := range st.sessions {
			if s.TeacherID == id {
				return domain.ErrUserInUse
			}
		}
		delete(st.users, id)
		for eid, e := range st.enrollments {
			if e.StudentID == id {
				delete(st.enrollments, eid)
			}
		}
		for sid, s := range st.signatures {
			if s.UserID == id {
				delete(st.signatures, sid)
			}
		}
		for gid, g := range st.groups {
			g.StudentIDs = slices.DeleteFunc(g.StudentIDs, func(v int64) bool { return v == id })
			st.groups[gid] = g
		}
		for bid, b := range st.briefs {
			b.StudentIDs = slices.DeleteFunc(b.StudentIDs, func(v int64) bool { return v == id })
			st.briefs[bid] = b
		}
		return nil
	})
}

// ---- formations ----

type formationRepo struct{ *repos }

func (r *formationRepo) Create(ctx context.Context, f *domain.Formation) error {
	return r.with(func(st *state) error {
		for _, other := range st.formations {
			if strings.EqualFold(other.Title, f.Title) {
				return domain.ErrFormationTitleAlreadyUsed
			}
		}
		now := time.Now().UTC()
		f.ID = st.id()
		f.CreatedAt, f.UpdatedAt = now, now
		st.formations[f.ID] = *f
		return nil
	})
}

func (r *formationRepo) GetByID(ctx context.Context, id int64) (*domain.Formation, error) {
	var out *domain.Formation
	err := r.with(func(st *state) error {
		f, ok := st.formations[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &f
		return nil
	})
	return out, err
}

func (r *formationRepo) GetByTitle(ctx context.Context, title string) (*domain.Formation, error) {
	var out *domain.Formation
	err := r.with(func(st *state) error {
		for _, f := range st.formations {
			if strings.EqualFold(f.Title, title) {
				out = &f
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}

func (r *formationRepo) List(ctx context.Context, filter domain.FormationFilter) ([]*domain.Formation, error) {
	needle := strings.ToLower(filter.TitleContains)
	out := []*domain.Formation{}
	err := r.with(func(st *state) error {
		ids := sortedByID(st.formations, func(f domain.Formation) bool {
			if filter.Level != "" && f.Level != filter.Level {
				return false
			}
			return needle == "" || strings.Contains(strings.ToLower(f.Title), needle)
		})
		for _, id := range paginate(ids, filter.Page) {
			f := st.formations[id]
			out = append(out, &f)
		}
		return nil
	})
	return out, err
}

func (r *formationRepo) Update(ctx context.Context, f *domain.Formation) error {
	return r.with(func(st *state) error {
		if _, ok := st.formations[f.ID]; !ok {
			return domain.ErrNotFound
		}
		for id, other := range st.formations {
			if id != f.ID && strings.EqualFold(other.Title, f.Title) {
				return domain.ErrFormationTitleAlreadyUsed
			}
		}
		f.UpdatedAt = time.Now().UTC()
		st.formations[f.ID] = *f
		return nil
	})
}

func (r *formationRepo) Delete(ctx context.Context, id int64) error {
	return r.with(func(st *state) error {
		if _, ok := st.formations[id]; !ok {
			return domain.ErrNotFound
		}
		for _, s := range st.sessions {
			if s.FormationID == id {
				return domain.ErrFormationInUse
			}
		}
		delete(st.formations, id)
		return nil
	})
}

// ---- sessions ----

type sessionRepo struct{ *repos }

// checkSession enforces the session table constraints for a row with id self
func checkSession(st *state, s *domain.Session, self int64) error {
	if _, ok := st.formations[s.FormationID]; !ok {
		return domain.ErrFormationNotFound
	}
	if _, ok := st.users[s.TeacherID]; !ok {
		return domain.ErrTeacherNotFound
	}
	if !s.StartDate.Before(s.EndDate) {
		return domain.ErrSessionStartDateAfterEndDate
	}
	for id, other := range st.sessions {
		if id != self && other.StartDate.Equal(s.StartDate) {
			return domain.ErrSessionStartDateAlreadyExists
		}
	}
	for id, other := range st.sessions {
		if id != self && other.EndDate.Equal(s.EndDate) {
			return domain.ErrSessionEndDateAlreadyExists
		}
	}
	return nil
}

func (r *sessionRepo) Create(ctx context.Context, s *domain.Session) error {
	return r.with(func(st *state) error {
		if err := checkSession(st, s, 0); err != nil {
			return err
		}
		s.ID = st.id()
		st.sessions[s.ID] = *s
		return nil
	})
}

func (r *sessionRepo) find(match func(domain.Session) bool) (*domain.Session, error) {
	var out *domain.Session
	err := r.with(func(st *state) error {
		ids := sortedByID(st.sessions, match)
		if len(ids) == 0 {
			return domain.ErrNotFound
		}
		s := st.sessions[ids[0]]
		out = &s
		return nil
	})
	return out, err
}

func (r *sessionRepo) list(match func(domain.Session) bool, page *domain.Page) ([]*domain.Session, error) {
	out := []*domain.Session{}
	err := r.with(func(st *state) error {
		ids := sortedByID(st.sessions, match)
		if page != nil {
			ids = paginate(ids, *page)
		}
		for _, id := range ids {
			s := st.sessions[id]
			out = append(out, &s)
		}
		return nil
	})
	return out, err
}

func (r *sessionRepo) GetByID(ctx context.Context, id int64) (*domain.Session, error) {
	return r.find(func(s domain.Session) bool { return s.ID == id })
}

// GetByIDForUpdate needs no extra locking: WithTx holds the store mutex
func (r *sessionRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Session, error) {
	return r.GetByID(ctx, id)
}

func (r *sessionRepo) GetByStartDate(ctx context.Context, start time.Time) (*domain.Session, error) {
	return r.find(func(s domain.Session) bool { return s.StartDate.Equal(start) })
}

func (r *sessionRepo) GetByEndDate(ctx context.Context, end time.Time) (*domain.Session, error) {
	return r.find(func(s domain.Session) bool { return s.EndDate.Equal(end) })
}

func (r *sessionRepo) GetByFormationAndTeacher(ctx context.Context, formationID, teacherID int64) (*domain.Session, error) {
	return r.find(func(s domain.Session) bool { return s.FormationID == formationID && s.TeacherID == teacherID })
}

func (r *sessionRepo) List(ctx context.Context, page domain.Page) ([]*domain.Session, error) {
	return r.list(nil, &page)
}

func (r *sessionRepo) ListByFormation(ctx context.Context, formationID int64) ([]*domain.Session, error) {
	return r.list(func(s domain.Session) bool { return s.FormationID == formationID }, nil)
}

func (r *sessionRepo) ListByTeacher(ctx context.Context, teacherID int64) ([]*domain.Session, error) {
	return r.list(func(s domain.Session) bool { return s.TeacherID == teacherID }, nil)
}

func (r *sessionRepo) Update(ctx context.Context, s *domain.Session) error {
	return r.with(func(st *state) error {
		if _, ok := st.sessions[s.ID]; !ok {
			return domain.ErrNotFound
		}
		if err := checkSession(st, s, s.ID); err != nil {
			return err
		}
		st.sessions[s.ID] = *s
		return nil
	})
}

func (r *sessionRepo) Delete(ctx context.Context, id int64) error {
	return r.with(func(st *state) error {
		if _, ok := st.sessions[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.sessions, id)
		for eid, e := range st.enrollments {
			if e.SessionID == id {
				delete(st.enrollments, eid)
			}
		}
		for sid, s := range st.signatures {
			if s.SessionID == id {
				delete(st.signatures, sid)
			}
		}
		for gid, g := range st.groups {
			if g.SessionID == id {
				delete(st.groups, gid)
			}
		}
		for bid, b := range st.briefs {
			if b.SessionID == id {
				delete(st.briefs, bid)
			}
		}
		return nil
	})
}

func (r *sessionRepo) SyncStatuses(ctx context.Context, now time.Time) (int64, error) {
	var changed int64
	err := r.with(func(st *state) error {
		for id, s := range st.sessions {
			next := s.StatusAt(now)
			// forward only
			if next == s.Status || next == domain.StatusScheduled ||
				(next == domain.StatusOngoing && s.Status != domain.StatusScheduled) {
				continue
			}
			s.Status = next
			st.sessions[id] = s
			changed++
		}
		return nil
	})
	return changed, err
}

// ---- enrollments ----

type enrollmentRepo struct{ *repos }

func checkEnrollment(st *state, e *domain.Enrollment) error {
	if _, ok := st.sessions[e.SessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	if _, ok := st.users[e.StudentID]; !ok {
		return domain.ErrUserNotFound
	}
	for id, other := range st.enrollments {
		if id != e.ID && other.SessionID == e.SessionID && other.StudentID == e.StudentID {
			return domain.ErrEnrollmentAlreadyExists
		}
	}
	return nil
}

func (r *enrollmentRepo) Create(ctx context.Context, e *domain.Enrollment) error {
	return r.with(func(st *state) error {
		e.ID = 0
		if err := checkEnrollment(st, e); err != nil {
			return err
		}
		e.ID = st.id()
		st.enrollments[e.ID] = *e
		return nil
	})
}

func (r *enrollmentRepo) find(match func(domain.Enrollment) bool) (*domain.Enrollment, error) {
	var out *domain.Enrollment
	err := r.with(func(st *state) error {
		ids := sortedByID(st.enrollments, match)
		if len(ids) == 0 {
			return domain.ErrNotFound
		}
		e := st.enrollments[ids[0]]
		out = &e
		return nil
	})
	return out, err
}

func (r *enrollmentRepo) list(match func(domain.Enrollment) bool, page *domain.Page) ([]*domain.Enrollment, error) {
	out := []*domain.Enrollment{}
	err := r.with(func(st *state) error {
		ids := sortedByID(st.enrollments, match)
		if page != nil {
			ids = paginate(ids, *page)
		}
		for _, id := range ids {
			e := st.enrollments[id]
			out = append(out, &e)
		}
		return nil
	})
	return out, err
}

func (r *enrollmentRepo) GetByID(ctx context.Context, id int64) (*domain.Enrollment, error) {
	return r.find(func(e domain.Enrollment) bool { return e.ID == id })
}

func (r *enrollmentRepo) GetBySessionAndStudent(ctx context.Context, sessionID, studentID int64) (*domain.Enrollment, error) {
	return r.find(func(e domain.Enrollment) bool { return e.SessionID == sessionID && e.StudentID == studentID })
}

func (r *enrollmentRepo) CountBySession(ctx context.Context, sessionID int64) (int, error) {
	n := 0
	err := r.with(func(st *state) error {
		for _, e := range st.enrollments {
			if e.SessionID == sessionID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *enrollmentRepo) List(ctx context.Context, page domain.Page) ([]*domain.Enrollment, error) {
	return r.list(nil, &page)
}

func (r *enrollmentRepo) ListBySession(ctx context.Context, sessionID int64) ([]*domain.Enrollment, error) {
	return r.list(func(e domain.Enrollment) bool { return e.SessionID == sessionID }, nil)
}

func (r *enrollmentRepo) ListByStudent(ctx context.Context, studentID int64) ([]*domain.Enrollment, error) {
	return r.list(func(e domain.Enrollment) bool { return e.StudentID == studentID }, nil)
}

func hasSignatures(st *state, sessionID, userID int64) bool {
	for _, s := range st.signatures {
		if s.SessionID == sessionID && s.UserID == userID {
			return true
		}
	}
	return false
}

func (r *enrollmentRepo) Update(ctx context.Context, e *domain.Enrollment) error {
	return r.with(func(st *state) error {
		current, ok := st.enrollments[e.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if err := checkEnrollment(st, e); err != nil {
			return err
		}
		moved := current.SessionID != e.SessionID || current.StudentID != e.StudentID
		if moved && hasSignatures(st, current.SessionID, current.StudentID) {
			return domain.ErrEnrollmentHasSignatures
		}
		st.enrollments[e.ID] = *e
		return nil
	})
}

// Delete removes the enrollment and the signatures recorded under it
func (r *enrollmentRepo) Delete(ctx context.Context, id int64) error {
	return r.with(func(st *state) error {
		e, ok := st.enrollments[id]
		if !ok {
			return domain.ErrNotFound
		}
		delete(st.enrollments, id)
		for sid, s := range st.signatures {
			if s.SessionID == e.SessionID && s.UserID == e.StudentID {
				delete(st.signatures, sid)
			}
		}
		return nil
	})
}

// ---- signatures ----

type signatureRepo struct{ *repos }

func (r *signatureRepo) Create(ctx context.Context, s *domain.Signature) error {
	return r.with(func(st *state) error {
		if _, ok := st.sessions[s.SessionID]; !ok {
			return domain.ErrSessionNotFound
		}
		if _, ok := st.users[s.UserID]; !ok {
			return domain.ErrUserNotFound
		}
		enrolled := false
		for _, e := range st.enrollments {
			if e.SessionID == s.SessionID && e.StudentID == s.UserID {
				enrolled = true
				break
			}
		}
		if !enrolled {
			return domain.ErrUserNotEnrolledInSession
		}
		for _, other := range st.signatures {
			if other.SessionID == s.SessionID && other.UserID == s.UserID && other.Date.Equal(s.Date) {
				return domain.ErrSignatureAlreadyExists
			}
		}
		s.ID = st.id()
		st.signatures[s.ID] = *s
		return nil
	})
}

func (r *signatureRepo) GetByID(ctx context.Context, id int64) (*domain.Signature, error) {
	var out *domain.Signature
	err := r.with(func(st *state) error {
		s, ok := st.signatures[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &s
		return nil
	})
	return out, err
}

func (r *signatureRepo) Exists(ctx context.Context, sessionID, userID int64, day time.Time) (bool, error) {
	found := false
	err := r.with(func(st *state) error {
		for _, s := range st.signatures {
			if s.SessionID == sessionID && s.UserID == userID && s.Date.Equal(day) {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *signatureRepo) list(match func(domain.Signature) bool, less func(a, b domain.Signature) int) ([]*domain.Signature, error) {
	out := []*domain.Signature{}
	err := r.with(func(st *state) error {
		for _, id := range sortedByID(st.signatures, match) {
			s := st.signatures[id]
			out = append(out, &s)
		}
		return nil
	})
	if less != nil {
		slices.SortStableFunc(out, func(a, b *domain.Signature) int { return less(*a, *b) })
	}
	return out, err
}

func (r *signatureRepo) ListBySessionAndDate(ctx context.Context, sessionID int64, day time.Time) ([]*domain.Signature, error) {
	return r.list(func(s domain.Signature) bool { return s.SessionID == sessionID && s.Date.Equal(day) }, nil)
}

func (r *signatureRepo) ListBySessionAndUser(ctx context.Context, sessionID, userID int64) ([]*domain.Signature, error) {
	return r.list(
		func(s domain.Signature) bool { return s.SessionID == sessionID && s.UserID == userID },
		func(a, b domain.Signature) int { return a.Date.Compare(b.Date) },
	)
}

func (r *signatureRepo) CountOutsideDays(ctx context.Context, sessionID int64, first, last time.Time) (int, error) {
	n := 0
	err := r.with(func(st *state) error {
		for _, s := range st.signatures {
			if s.SessionID == sessionID && (s.Date.Before(first) || s.Date.After(last)) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *signatureRepo) Delete(ctx context.Context, id int64) error {
	return r.with(func(st *state) error {
		if _, ok := st.signatures[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.signatures, id)
		return nil
	})
}

// ---- groups ----

type groupRepo struct{ *repos }

func checkMembers(st *state, ids []int64) error {
	for _, id := range ids {
		if _, ok := st.users[id]; !ok {
			return domain.ErrUserNotFound
		}
	}
	if len(uniqueIDs(ids)) != len(ids) {
		return domain.ErrInvalidRequest
	}
	return nil
}

func copyGroup(g domain.Group) *domain.Group {
	g.StudentIDs = uniqueIDs(g.StudentIDs)
	return &g
}

func (r *groupRepo) Create(ctx context.Context, g *domain.Group) error {
	return r.with(func(st *state) error {
		if _, ok := st.sessions[g.SessionID]; !ok {
			return domain.ErrSessionNotFound
		}
		if err := checkMembers(st, g.StudentIDs); err != nil {
			return err
		}
		g.ID = st.id()
		st.groups[g.ID] = *copyGroup(*g)
		return nil
	})
}

func (r *groupRepo) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	var out *domain.Group
	err := r.with(func(st *state) error {
		g, ok := st.groups[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = copyGroup(g)
		return nil
	})
	return out, err
}

func (r *groupRepo) ListBySession(ctx context.Context, sessionID int64) ([]*domain.Group, error) {
	out := []*domain.Group{}
	err := r.with(func(st *state) error {
		for _, id := range sortedByID(st.groups, func(g domain.Group) bool { return g.SessionID == sessionID }) {
			out = append(out, copyGroup(st.groups[id]))
		}
		return nil
	})
	return out, err
}

func (r *groupRepo) Update(ctx context.Context, g *domain.Group, replaceMembers bool) error {
	return r.with(func(st *state) error {
		cur, ok := st.groups[g.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Name = g.Name
		if replaceMembers {
			if err := checkMembers(st, g.StudentIDs); err != nil {
				return err
			}
			cur.StudentIDs = slices.Clone(g.StudentIDs)
		}
		st.groups[g.ID] = *copyGroup(cur)
		return nil
	})
}

func (r *groupRepo) Delete(ctx context.Context, id int64) error {
	return r.with(func(st *state) error {
		if _, ok := st.groups[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.groups, id)
		return nil
	})
}

// ---- briefs ----

type briefRepo struct{ *repos }

func copyBrief(b domain.Brief) *domain.Brief {
	b.StudentIDs = uniqueIDs(b.StudentIDs)
	return &b
}

func (r *briefRepo) list(match func(domain.Brief) bool, page *domain.Page, order func(a, b *domain.Brief) int) ([]*domain.Brief, error) {
	out := []*domain.Brief{}
	err := r.with(func(st *state) error {
		ids := sortedByID(st.briefs, match)
		if page != nil {
			ids = paginate(ids, *page)
		}
		for _, id := range ids {
			out = append(out, copyBrief(st.briefs[id]))
		}
		return nil
	})
	if order != nil {
		slices.SortStableFunc(out, order)
	}
	return out, err
}

func (r *briefRepo) Create(ctx context.Context, b *domain.Brief) error {
	return r.with(func(st *state) error {
		if _, ok := st.sessions[b.SessionID]; !ok {
			return domain.ErrSessionNotFound
		}
		if err := checkMembers(st, b.StudentIDs); err != nil {
			return err
		}
		now := time.Now().UTC()
		b.ID = st.id()
		b.CreatedAt, b.UpdatedAt = now, now
		st.briefs[b.ID] = *copyBrief(*b)
		return nil
	})
}

func (r *briefRepo) GetByID(ctx context.Context, id int64) (*domain.Brief, error) {
	var out *domain.Brief
	err := r.with(func(st *state) error {
		b, ok := st.briefs[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = copyBrief(b)
		return nil
	})
	return out, err
}

func (r *briefRepo) List(ctx context.Context, page domain.Page) ([]*domain.Brief, error) {
	return r.list(nil, &page, nil)
}

func (r *briefRepo) ListBySession(ctx context.Context, sessionID int64) ([]*domain.Brief, error) {
	return r.list(
		func(b domain.Brief) bool { return b.SessionID == sessionID },
		nil,
		func(a, b *domain.Brief) int { return cmp.Compare(a.Order, b.Order) },
	)
}

func (r *briefRepo) ListByStudent(ctx context.Context, studentID int64) ([]*domain.Brief, error) {
	return r.list(
		func(b domain.Brief) bool { return slices.Contains(b.StudentIDs, studentID) },
		nil,
		func(a, b *domain.Brief) int { return a.DeliveryDeadline.Compare(b.DeliveryDeadline) },
	)
}

func (r *briefRepo) Update(ctx context.Context, b *domain.Brief, replaceStudents bool) error {
	return r.with(func(st *state) error {
		cur, ok := st.briefs[b.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if _, ok := st.sessions[b.SessionID]; !ok {
			return domain.ErrSessionNotFound
		}
		next := *b
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = time.Now().UTC()
		if replaceStudents {
			if err := checkMembers(st, b.StudentIDs); err != nil {
				return err
			}
		} else {
			next.StudentIDs = cur.StudentIDs
		}
		st.briefs[b.ID] = *copyBrief(next)
		b.UpdatedAt = next.UpdatedAt
		return nil
	})
}

func (r *briefRepo) Delete(ctx context.Context, id int64) error {
	return r.with(func(st *state) error {
		if _, ok := st.briefs[id]; !ok {
			return domain.ErrNotFound
		}
		delete(st.briefs, id)
		return nil
	})
}
