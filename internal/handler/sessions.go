package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/service"
)

// SessionHandler serves /api/sessions
type SessionHandler struct {
	sessions *service.SessionService
	logger   *slog.Logger
}

func NewSessionHandler(sessions *service.SessionService, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{sessions: sessions, logger: logger}
}

type createSessionRequest struct {
	FormationID int64     `json:"formation_id" validate:"required,gte=1"`
	TeacherID   int64     `json:"teacher_id" validate:"required,gte=1"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	CapacityMax int       `json:"capacity_max" validate:"required,gte=1"`
	Status      string    `json:"status" validate:"omitempty,oneof=scheduled ongoing completed"`
}

type updateSessionRequest struct {
	FormationID *int64     `json:"formation_id" validate:"omitempty,gte=1"`
	TeacherID   *int64     `json:"teacher_id" validate:"omitempty,gte=1"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	CapacityMax *int       `json:"capacity_max" validate:"omitempty,gte=1"`
	Status      *string    `json:"status" validate:"omitempty,oneof=scheduled ongoing completed"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	s, err := h.sessions.Create(r.Context(), service.CreateSessionInput{
		FormationID: req.FormationID,
		TeacherID:   req.TeacherID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CapacityMax: req.CapacityMax,
		Status:      domain.SessionStatus(req.Status),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSession(s))
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	sessions, err := h.sessions.List(r.Context(), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(sessions, toSession))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r)(h.sessions.GetByID(r.Context(), id))
}

func (h *SessionHandler) GetByStartDate(w http.ResponseWriter, r *http.Request) {
	start, err := pathTime(r, "date")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r)(h.sessions.GetByStartDate(r.Context(), start))
}

func (h *SessionHandler) GetByEndDate(w http.ResponseWriter, r *http.Request) {
	end, err := pathTime(r, "date")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r)(h.sessions.GetByEndDate(r.Context(), end))
}

func (h *SessionHandler) GetByFormationAndTeacher(w http.ResponseWriter, r *http.Request) {
	formationID, err := pathID(r, "formation_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	teacherID, err := pathID(r, "teacher_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r)(h.sessions.GetByFormationAndTeacher(r.Context(), formationID, teacherID))
}

func (h *SessionHandler) ListByFormation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "formation_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respondList(w, r)(h.sessions.ListByFormation(r.Context(), id))
}

func (h *SessionHandler) ListByTeacher(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "teacher_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respondList(w, r)(h.sessions.ListByTeacher(r.Context(), id))
}

func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req updateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	patch := domain.SessionPatch{
		FormationID: req.FormationID,
		TeacherID:   req.TeacherID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CapacityMax: req.CapacityMax,
	}
	if req.Status != nil {
		status := domain.SessionStatus(*req.Status)
		patch.Status = &status
	}
	h.respond(w, r)(h.sessions.Update(r.Context(), id, patch))
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request) func(*domain.Session, error) {
	return func(s *domain.Session, err error) {
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toSession(s))
	}
}

func (h *SessionHandler) respondList(w http.ResponseWriter, r *http.Request) func([]*domain.Session, error) {
	return func(list []*domain.Session, err error) {
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, mapAll(list, toSession))
	}
}
