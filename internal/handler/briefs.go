package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/service"
)

// BriefHandler serves /api/briefs
type BriefHandler struct {
	briefs *service.BriefService
	logger *slog.Logger
}

func NewBriefHandler(briefs *service.BriefService, logger *slog.Logger) *BriefHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BriefHandler{briefs: briefs, logger: logger}
}

type createBriefRequest struct {
	Title            string    `json:"title" validate:"required,max=255"`
	Description      string    `json:"description"`
	DeliveryDeadline time.Time `json:"delivery_deadline" validate:"required"`
	Order            int       `json:"order" validate:"gte=0"`
	SessionID        int64     `json:"session_id" validate:"required,gte=1"`
	StudentIDs       []int64   `json:"student_ids" validate:"dive,gte=1"`
	GroupID          *int64    `json:"group_id" validate:"omitempty,gte=1"`
}

type updateBriefRequest struct {
	Title            *string    `json:"title" validate:"omitempty,max=255"`
	Description      *string    `json:"description"`
	DeliveryDeadline *time.Time `json:"delivery_deadline"`
	Order            *int       `json:"order" validate:"omitempty,gte=0"`
	SessionID        *int64     `json:"session_id" validate:"omitempty,gte=1"`
	StudentIDs       []int64    `json:"student_ids" validate:"omitempty,dive,gte=1"`
	GroupID          *int64     `json:"group_id" validate:"omitempty,gte=1"`
}

func (h *BriefHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBriefRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	b, err := h.briefs.Create(r.Context(), service.CreateBriefInput{
		Title:            req.Title,
		Description:      req.Description,
		DeliveryDeadline: req.DeliveryDeadline,
		Order:            req.Order,
		SessionID:        req.SessionID,
		StudentIDs:       req.StudentIDs,
		GroupID:          req.GroupID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBrief(b))
}

func (h *BriefHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.briefs.List(r.Context(), page)
	h.respondList(w, r, list, err)
}

func (h *BriefHandler) ListBySession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.briefs.ListBySession(r.Context(), id)
	h.respondList(w, r, list, err)
}

func (h *BriefHandler) ListByStudent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "student_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.briefs.ListByStudent(r.Context(), id)
	h.respondList(w, r, list, err)
}

func (h *BriefHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	b, err := h.briefs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBrief(b))
}

func (h *BriefHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req updateBriefRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	b, err := h.briefs.Update(r.Context(), id, domain.BriefPatch{
		Title:            req.Title,
		Description:      req.Description,
		DeliveryDeadline: req.DeliveryDeadline,
		Order:            req.Order,
		SessionID:        req.SessionID,
		StudentIDs:       req.StudentIDs,
		GroupID:          req.GroupID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBrief(b))
}

func (h *BriefHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.briefs.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BriefHandler) respondList(w http.ResponseWriter, r *http.Request, list []*domain.Brief, err error) {
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, toBrief))
}
