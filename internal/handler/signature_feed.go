package handler

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/realtime"
	"github.com/aryan0dhankhar/formationhub/internal/security/middleware"
	"github.com/aryan0dhankhar/formationhub/internal/service"
	"github.com/gorilla/websocket"
)

const (
	feedPingInterval = 15 * time.Second
	feedWriteTimeout = 5 * time.Second
)

// SignatureFeedHandler streams attendance events of one session over a
// WebSocket
type SignatureFeedHandler struct {
	hub            *realtime.Hub
	sessions       *service.SessionService
	allowedOrigins []string
	logger         *slog.Logger
}

func NewSignatureFeedHandler(hub *realtime.Hub, sessions *service.SessionService, allowedOrigins []string, logger *slog.Logger) *SignatureFeedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SignatureFeedHandler{
		hub:            hub,
		sessions:       sessions,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

func (h *SignatureFeedHandler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// non-browser clients send no origin
			if origin == "" || slices.Contains(h.allowedOrigins, origin) {
				return true
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/sessions/{id}/signatures. Learners only receive
// their own events.
func (h *SignatureFeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, r, h.logger, domain.ErrUnauthorized)
		return
	}
	visible := func(realtime.SignatureEvent) bool { return true }
	if claims.Role == domain.RoleLearner {
		visible = func(ev realtime.SignatureEvent) bool { return ev.UserID == claims.UserID }
	}

	sessionID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if _, err := h.sessions.GetByID(r.Context(), sessionID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	upgrader := h.upgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	events, cancel := h.hub.Subscribe(sessionID)
	defer cancel()

	// the read loop only detects the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()

	logger := h.logger.With(slog.Int64("session_id", sessionID))
	logger.Debug("attendance feed opened")
	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			logger.Debug("attendance feed closed by client")
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(feedWriteTimeout)); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !visible(ev) {
				continue
			}
			_ = ws.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := ws.WriteJSON(ev); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Debug("websocket closed", slog.String("error", err.Error()))
				}
				return
			}
		}
	}
}
