package handler

import (
	"log/slog"
	"net/http"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/service"
)

// FormationHandler serves /api/formations
type FormationHandler struct {
	formations *service.FormationService
	logger     *slog.Logger
}

func NewFormationHandler(formations *service.FormationService, logger *slog.Logger) *FormationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FormationHandler{formations: formations, logger: logger}
}

type createFormationRequest struct {
	Title         string `json:"title" validate:"required,min=2,max=200"`
	Description   string `json:"description" validate:"max=5000"`
	DurationHours int    `json:"duration_hours" validate:"required,gte=1,lte=10000"`
	Level         string `json:"level" validate:"required,oneof=beginner intermediate advanced"`
}

type updateFormationRequest struct {
	Title         *string `json:"title" validate:"omitempty,min=2,max=200"`
	Description   *string `json:"description" validate:"omitempty,max=5000"`
	DurationHours *int    `json:"duration_hours" validate:"omitempty,gte=1,lte=10000"`
	Level         *string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
}

func (h *FormationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFormationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	f, err := h.formations.Create(r.Context(), service.CreateFormationInput{
		Title:         req.Title,
		Description:   req.Description,
		DurationHours: req.DurationHours,
		Level:         domain.Level(req.Level),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFormation(f))
}

// List handles GET /api/formations?level=&title_contains=&offset=&limit=
func (h *FormationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	q := r.URL.Query()
	formations, err := h.formations.List(r.Context(), domain.FormationFilter{
		Page:          page,
		Level:         domain.Level(q.Get("level")),
		TitleContains: q.Get("title_contains"),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(formations, toFormation))
}

func (h *FormationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	f, err := h.formations.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toFormation(f))
}

func (h *FormationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req updateFormationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	patch := domain.FormationPatch{
		Title:         req.Title,
		Description:   req.Description,
		DurationHours: req.DurationHours,
	}
	if req.Level != nil {
		level := domain.Level(*req.Level)
		patch.Level = &level
	}

	f, err := h.formations.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toFormation(f))
}

func (h *FormationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.formations.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
