package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/service"
)

// GroupHandler serves /api/groups
type GroupHandler struct {
	groups *service.GroupService
	logger *slog.Logger
}

func NewGroupHandler(groups *service.GroupService, logger *slog.Logger) *GroupHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupHandler{groups: groups, logger: logger}
}

type createGroupRequest struct {
	SessionID  int64   `json:"session_id" validate:"required,gte=1"`
	Name       string  `json:"name" validate:"required,max=100"`
	StudentIDs []int64 `json:"student_ids" validate:"dive,gte=1"`
}

type updateGroupRequest struct {
	Name *string `json:"name" validate:"omitempty,max=100"`
	// StudentIDs replaces the members when present
	StudentIDs []int64 `json:"student_ids" validate:"omitempty,dive,gte=1"`
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	g, err := h.groups.Create(r.Context(), req.SessionID, req.Name, req.StudentIDs)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroup(g))
}

func (h *GroupHandler) ListBySession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.groups.ListBySession(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, toGroup))
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r, http.StatusOK)(h.groups.GetByID(r.Context(), id))
}

func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req updateGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r, http.StatusOK)(h.groups.Update(r.Context(), id, req.Name, req.StudentIDs))
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.groups.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GroupHandler) respond(w http.ResponseWriter, r *http.Request, status int) func(*domain.Group, error) {
	return func(g *domain.Group, err error) {
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, status, toGroup(g))
	}
}
