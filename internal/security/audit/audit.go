package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/observability/requestid"
)

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

// Entry is one audited action
type Entry struct {
	UserID     int64
	Role       string
	Action     string
	Resource   string
	ResourceID string
	Status     int
	Details    string
}

func (al *Logger) LogAction(ctx context.Context, e Entry) {
	al.logger.Info("audit",
		slog.String("action", e.Action),
		slog.String("resource", e.Resource),
		slog.String("resource_id", e.ResourceID),
		slog.Int64("user_id", e.UserID),
		slog.String("role", e.Role),
		slog.Int("status", e.Status),
		slog.String("details", e.Details),
		slog.String("request_id", requestid.FromContext(ctx)),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogDenied(ctx context.Context, userID int64, reason string) {
	al.LogAction(ctx, Entry{UserID: userID, Action: "access_denied", Resource: "api", Details: reason})
}
