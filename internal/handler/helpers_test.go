package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/realtime"
	"github.com/aryan0dhankhar/formationhub/internal/repository/memory"
	"github.com/aryan0dhankhar/formationhub/internal/security"
	"github.com/aryan0dhankhar/formationhub/internal/security/audit"
	"github.com/aryan0dhankhar/formationhub/internal/security/auth"
	"github.com/aryan0dhankhar/formationhub/internal/security/middleware"
	"github.com/aryan0dhankhar/formationhub/internal/service"
	"github.com/aryan0dhankhar/formationhub/pkg/cache"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse"

// testServer runs the full API over the in-memory store
type testServer struct {
	*httptest.Server
	store  *memory.Store
	tokens *auth.TokenManager
	hub    *realtime.Hub
	seq    int

	admin    *domain.User
	trainer  *domain.User
	learners []*domain.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	tokens := auth.NewTokenManager("test-secret", "formationhub", time.Hour)
	hub := realtime.NewHub(nil)
	c := cache.New()

	sessions := service.NewSessionService(store, c, service.SessionConfig{}, nil)
	h := Handlers{
		Auth:          NewAuthHandler(service.NewAuthService(store.Users(), tokens, nil), nil),
		Users:         NewUserHandler(service.NewUserService(store, nil), nil),
		Formations:    NewFormationHandler(service.NewFormationService(store, c, time.Minute, nil), nil),
		Sessions:      NewSessionHandler(sessions, nil),
		Enrollments:   NewEnrollmentHandler(service.NewEnrollmentService(store, nil), nil),
		Signatures:    NewSignatureHandler(service.NewSignatureService(store, hub, nil), security.NewAuthorizationServiceV2(nil), nil),
		Groups:        NewGroupHandler(service.NewGroupService(store, nil), nil),
		Briefs:        NewBriefHandler(service.NewBriefService(store, nil), nil),
		SignatureFeed: NewSignatureFeedHandler(hub, sessions, nil, nil),
		Health:        NewHealthHandler(store, nil, nil),
	}
	auditLog := audit.NewLogger(nil)
	mux := NewRouter(h, security.NewAuthorizationService(nil), auditLog)
	root := middleware.JWTMiddleware(tokens, nil)(middleware.AuditMiddleware(auditLog)(mux))

	ts := &testServer{Server: httptest.NewServer(root), store: store, tokens: tokens, hub: hub}
	t.Cleanup(ts.Close)

	ts.admin = ts.user(t, "admin@example.com", domain.RoleAdmin)
	ts.trainer = ts.user(t, "trainer@example.com", domain.RoleTrainer)
	for _, email := range []string{"ada@example.com", "linus@example.com"} {
		ts.learners = append(ts.learners, ts.user(t, email, domain.RoleLearner))
	}
	return ts
}

func (ts *testServer) user(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	u := &domain.User{Email: email, Role: role, PasswordHash: hash}
	require.NoError(t, ts.store.Users().Create(context.Background(), u))
	return u
}

func (ts *testServer) token(t *testing.T, u *domain.User) string {
	t.Helper()
	tok, err := ts.tokens.GenerateToken(u)
	require.NoError(t, err)
	return tok
}

// do sends a JSON request as u (anonymous when nil) and returns the status
// and raw body
func (ts *testServer) do(t *testing.T, u *domain.User, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if u != nil {
		req.Header.Set("Authorization", "Bearer "+ts.token(t, u))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// decode unmarshals a response body, failing the test on error
func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (ts *testServer) formation(t *testing.T) formationResponse {
	t.Helper()
	ts.seq++
	status, raw := ts.do(t, ts.admin, http.MethodPost, "/api/formations", map[string]any{
		"title":          fmt.Sprintf("Go fundamentals %d", ts.seq),
		"duration_hours": 21,
		"level":          "beginner",
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[formationResponse](t, raw)
}

// session creates a session from 2030-01-10 09:00 to 2030-01-12 17:00 UTC
func (ts *testServer) session(t *testing.T, capacity int) sessionResponse {
	t.Helper()
	f := ts.formation(t)
	status, raw := ts.do(t, ts.trainer, http.MethodPost, "/api/sessions", map[string]any{
		"formation_id": f.ID,
		"teacher_id":   ts.trainer.ID,
		"start_date":   "2030-01-10T09:00:00Z",
		"end_date":     "2030-01-12T17:00:00Z",
		"capacity_max": capacity,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
	return decode[sessionResponse](t, raw)
}

func (ts *testServer) enroll(t *testing.T, sessionID int64, u *domain.User) {
	t.Helper()
	status, raw := ts.do(t, ts.trainer, http.MethodPost, "/api/enrollments", map[string]any{
		"session_id": sessionID,
		"student_id": u.ID,
	})
	require.Equal(t, http.StatusCreated, status, string(raw))
}
