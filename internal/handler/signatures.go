package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/security"
	"github.com/aryan0dhankhar/formationhub/internal/security/auth"
	"github.com/aryan0dhankhar/formationhub/internal/security/middleware"
	"github.com/aryan0dhankhar/formationhub/internal/service"
)

// SignatureHandler serves /api/signatures. Learners only see and record
// their own attendance.
type SignatureHandler struct {
	signatures *service.SignatureService
	ownership  *security.AuthorizationServiceV2
	logger     *slog.Logger
}

func NewSignatureHandler(signatures *service.SignatureService, ownership *security.AuthorizationServiceV2, logger *slog.Logger) *SignatureHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SignatureHandler{signatures: signatures, ownership: ownership, logger: logger}
}

type signRequest struct {
	SessionID int64 `json:"session_id" validate:"required,gte=1"`
	// UserID defaults to the caller
	UserID int64 `json:"user_id" validate:"omitempty,gte=1"`
	// Date defaults to today (UTC)
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (h *SignatureHandler) claims(w http.ResponseWriter, r *http.Request) *auth.Claims {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, r, h.logger, domain.ErrUnauthorized)
	}
	return claims
}

func (h *SignatureHandler) checkOwner(claims *auth.Claims, signatureID, ownerID int64, action security.Action) error {
	return h.ownership.ValidateResourceAccess(claims.UserID, claims.Role, security.ResourcePermission{
		ResourceType: security.ResourceSignature,
		ResourceID:   signatureID,
		OwnerID:      ownerID,
		Action:       action,
	})
}

func (h *SignatureHandler) Sign(w http.ResponseWriter, r *http.Request) {
	claims := h.claims(w, r)
	if claims == nil {
		return
	}

	var req signRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.UserID == 0 {
		req.UserID = claims.UserID
	}
	if err := h.checkOwner(claims, 0, req.UserID, security.ActionWrite); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var day *time.Time
	if req.Date != "" {
		d, err := domain.ParseDay(req.Date)
		if err != nil {
			writeError(w, r, h.logger, domain.ErrInvalidRequest.WithMessage("Invalid date, expected YYYY-MM-DD."))
			return
		}
		day = &d
	}

	sig, err := h.signatures.Sign(r.Context(), req.SessionID, req.UserID, day)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSignature(sig))
}

func (h *SignatureHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := h.claims(w, r)
	if claims == nil {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	sig, err := h.signatures.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.checkOwner(claims, sig.ID, sig.UserID, security.ActionRead); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSignature(sig))
}

// ListBySessionAndDate returns a day's attendance. Learners get only their
// own entry.
func (h *SignatureHandler) ListBySessionAndDate(w http.ResponseWriter, r *http.Request) {
	claims := h.claims(w, r)
	if claims == nil {
		return
	}
	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	day, err := pathDay(r, "date")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.signatures.ListBySessionAndDate(r.Context(), sessionID, day)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if claims.Role == domain.RoleLearner {
		own := list[:0]
		for _, sig := range list {
			if sig.UserID == claims.UserID {
				own = append(own, sig)
			}
		}
		list = own
	}
	writeJSON(w, http.StatusOK, mapAll(list, toSignature))
}

func (h *SignatureHandler) ListBySessionAndUser(w http.ResponseWriter, r *http.Request) {
	claims := h.claims(w, r)
	if claims == nil {
		return
	}
	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.checkOwner(claims, 0, userID, security.ActionRead); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, err := h.signatures.ListBySessionAndUser(r.Context(), sessionID, userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, toSignature))
}

func (h *SignatureHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.signatures.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
