package handler

import (
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
)

type userResponse struct {
	ID                 int64       `json:"id"`
	Email              string      `json:"email"`
	FirstName          string      `json:"first_name"`
	LastName           string      `json:"last_name"`
	Role               domain.Role `json:"role"`
	MustChangePassword bool        `json:"must_change_password"`
	RegisteredAt       time.Time   `json:"registered_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

func toUser(u *domain.User) userResponse {
	return userResponse{
		ID:                 u.ID,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Role:               u.Role,
		MustChangePassword: u.MustChangePassword,
		RegisteredAt:       u.RegisteredAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

type formationResponse struct {
	ID            int64        `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	DurationHours int          `json:"duration_hours"`
	Level         domain.Level `json:"level"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func toFormation(f *domain.Formation) formationResponse {
	return formationResponse{
		ID:            f.ID,
		Title:         f.Title,
		Description:   f.Description,
		DurationHours: f.DurationHours,
		Level:         f.Level,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

type sessionResponse struct {
	ID          int64                `json:"id"`
	FormationID int64                `json:"formation_id"`
	TeacherID   int64                `json:"teacher_id"`
	StartDate   time.Time            `json:"start_date"`
	EndDate     time.Time            `json:"end_date"`
	CapacityMax int                  `json:"capacity_max"`
	Status      domain.SessionStatus `json:"status"`
}

func toSession(s *domain.Session) sessionResponse {
	return sessionResponse{
		ID:          s.ID,
		FormationID: s.FormationID,
		TeacherID:   s.TeacherID,
		StartDate:   s.StartDate,
		EndDate:     s.EndDate,
		CapacityMax: s.CapacityMax,
		Status:      s.Status,
	}
}

type enrollmentResponse struct {
	ID         int64     `json:"id"`
	SessionID  int64     `json:"session_id"`
	StudentID  int64     `json:"student_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

func toEnrollment(e *domain.Enrollment) enrollmentResponse {
	return enrollmentResponse{ID: e.ID, SessionID: e.SessionID, StudentID: e.StudentID, EnrolledAt: e.EnrolledAt}
}

type signatureResponse struct {
	ID        int64  `json:"id"`
	SessionID int64  `json:"session_id"`
	UserID    int64  `json:"user_id"`
	Date      string `json:"date"`
}

func toSignature(s *domain.Signature) signatureResponse {
	return signatureResponse{ID: s.ID, SessionID: s.SessionID, UserID: s.UserID, Date: s.Date.Format(domain.DateLayout)}
}

type groupResponse struct {
	ID         int64   `json:"id"`
	SessionID  int64   `json:"session_id"`
	Name       string  `json:"name"`
	StudentIDs []int64 `json:"student_ids"`
}

func toGroup(g *domain.Group) groupResponse {
	ids := g.StudentIDs
	if ids == nil {
		ids = []int64{}
	}
	return groupResponse{ID: g.ID, SessionID: g.SessionID, Name: g.Name, StudentIDs: ids}
}

type briefResponse struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	DeliveryDeadline time.Time `json:"delivery_deadline"`
	Order            int       `json:"order"`
	SessionID        int64     `json:"session_id"`
	StudentIDs       []int64   `json:"student_ids"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toBrief(b *domain.Brief) briefResponse {
	ids := b.StudentIDs
	if ids == nil {
		ids = []int64{}
	}
	return briefResponse{
		ID:               b.ID,
		Title:            b.Title,
		Description:      b.Description,
		DeliveryDeadline: b.DeliveryDeadline,
		Order:            b.Order,
		SessionID:        b.SessionID,
		StudentIDs:       ids,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

// mapAll converts a listing, keeping empty results as [] rather than null
func mapAll[T, R any](items []*T, fn func(*T) R) []R {
	out := make([]R, 0, len(items))
	for _, it := range items {
		out = append(out, fn(it))
	}
	return out
}
