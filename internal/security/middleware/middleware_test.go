package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/security"
	"github.com/aryan0dhankhar/formationhub/internal/security/audit"
	"github.com/aryan0dhankhar/formationhub/internal/security/auth"
	"github.com/aryan0dhankhar/formationhub/internal/security/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func token(t *testing.T, tm *auth.TokenManager, id int64, role domain.Role) string {
	t.Helper()
	tok, err := tm.GenerateToken(&domain.User{ID: id, Email: "u@example.com", Role: role})
	require.NoError(t, err)
	return tok
}

func TestJWTMiddleware(t *testing.T) {
	tm := auth.NewTokenManager("secret", "formationhub", time.Minute)
	h := JWTMiddleware(tm, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c := GetClaimsFromContext(r.Context()); c != nil {
			w.Header().Set("X-User", string(c.Role))
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	tok := token(t, tm, 1, domain.RoleAdmin)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"public health", "/healthz", "", http.StatusNoContent},
		{"public login", LoginPath, "", http.StatusNoContent},
		{"missing token", "/api/sessions", "", http.StatusUnauthorized},
		{"malformed header", "/api/sessions", "Token abc", http.StatusUnauthorized},
		{"bad token", "/api/sessions", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "/api/sessions", "Bearer " + tok, http.StatusNoContent},
		{"websocket query token", "/ws/sessions/1/signatures?access_token=" + tok, "", http.StatusNoContent},
		{"query token ignored on api", "/api/sessions?access_token=" + tok, "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if rec.Code == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	authz := security.NewAuthorizationService(nil)
	h := RequirePermission(authz, audit.NewLogger(nil), security.PermManageFormations)(ok)

	for role, want := range map[domain.Role]int{
		domain.RoleAdmin:   http.StatusNoContent,
		domain.RoleTrainer: http.StatusForbidden,
		domain.RoleLearner: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/formations", nil)
		req = req.WithContext(WithClaims(req.Context(), &auth.Claims{UserID: 1, Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/formations", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimitLoginByIP(t *testing.T) {
	limiter := ratelimit.NewLimiter(100, time.Minute)
	defer limiter.Stop()
	h := RateLimitMiddleware(limiter, LoginLimit{Requests: 2, Window: time.Minute}, nil)(ok)

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, LoginPath, nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{204, 204, 429}, codes)

	req := httptest.NewRequest(http.MethodPost, LoginPath, nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimitPerUser(t *testing.T) {
	limiter := ratelimit.NewLimiter(1, time.Minute)
	defer limiter.Stop()
	h := RateLimitMiddleware(limiter, LoginLimit{Requests: 5, Window: time.Minute}, nil)(ok)

	call := func(id int64) int {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		req = req.WithContext(WithClaims(req.Context(), &auth.Claims{UserID: id, Role: domain.RoleLearner}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, call(1))
	assert.Equal(t, http.StatusTooManyRequests, call(1))
	assert.Equal(t, http.StatusNoContent, call(2))
}

func TestValidateJSONContentType(t *testing.T) {
	h := ValidateJSONContentType(nil)(ok)

	req := httptest.NewRequest(http.MethodPost, "/api/formations", strings.NewReader("title=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/formations", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
