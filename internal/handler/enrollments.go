package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/service"
)

// EnrollmentHandler serves /api/enrollments
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	logger      *slog.Logger
}

func NewEnrollmentHandler(enrollments *service.EnrollmentService, logger *slog.Logger) *EnrollmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrollmentHandler{enrollments: enrollments, logger: logger}
}

type createEnrollmentRequest struct {
	SessionID int64 `json:"session_id" validate:"required,gte=1"`
	StudentID int64 `json:"student_id" validate:"required,gte=1"`
}

type updateEnrollmentRequest struct {
	SessionID *int64 `json:"session_id" validate:"omitempty,gte=1"`
	StudentID *int64 `json:"student_id" validate:"omitempty,gte=1"`
}

func (h *EnrollmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEnrollmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	e, err := h.enrollments.Create(r.Context(), req.SessionID, req.StudentID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEnrollment(e))
}

// List handles GET /api/enrollments, optionally narrowed to one
// session_id and student_id pair
func (h *EnrollmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Has("session_id") || q.Has("student_id") {
		h.getPair(w, r)
		return
	}

	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.enrollments.List(r.Context(), page)
	h.respondList(w, r, list, err)
}

func (h *EnrollmentHandler) getPair(w http.ResponseWriter, r *http.Request) {
	sessionID, err := queryID(r, "session_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	studentID, err := queryID(r, "student_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	e, err := h.enrollments.GetBySessionAndStudent(r.Context(), sessionID, studentID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnrollment(e))
}

func (h *EnrollmentHandler) ListBySession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.enrollments.ListBySession(r.Context(), id)
	h.respondList(w, r, list, err)
}

func (h *EnrollmentHandler) ListByStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "student_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.enrollments.ListByStudent(r.Context(), id)
	h.respondList(w, r, list, err)
}

func (h *EnrollmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	e, err := h.enrollments.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnrollment(e))
}

func (h *EnrollmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req updateEnrollmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	e, err := h.enrollments.Update(r.Context(), id, domain.EnrollmentPatch{SessionID: req.SessionID, StudentID: req.StudentID})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnrollment(e))
}

func (h *EnrollmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.enrollments.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EnrollmentHandler) respondList(w http.ResponseWriter, r *http.Request, list []*domain.Enrollment, err error) {
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, toEnrollment))
}
