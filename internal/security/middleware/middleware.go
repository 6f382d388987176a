package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/security"
	"github.com/aryan0dhankhar/formationhub/internal/security/audit"
	"github.com/aryan0dhankhar/formationhub/internal/security/auth"
	"github.com/aryan0dhankhar/formationhub/internal/security/ratelimit"
)

// LoginPath is the only API route reachable without a token
const LoginPath = "/api/auth/login"

type ClaimsContextKey struct{}

func isPublic(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics", LoginPath:
		return true
	}
	return false
}

// writeError mirrors the API error body so middleware rejections look like
// handler rejections
func writeError(w http.ResponseWriter, status int, e *domain.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": e.Code, "message": e.Message})
}

// JWTMiddleware authenticates every non-public request. Websocket clients
// cannot set headers, so /ws/ routes also accept an access_token query param.
func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path) || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			var tokenString string
			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				t, err := auth.ExtractToken(authHeader)
				if err != nil {
					writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.WithMessage("Invalid authorization header."))
					return
				}
				tokenString = t
			} else if strings.HasPrefix(r.URL.Path, "/ws/") {
				tokenString = r.URL.Query().Get("access_token")
			}
			if tokenString == "" {
				writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				log.Debug("token rejected", slog.String("error", err.Error()))
				writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.WithMessage("Invalid or expired token."))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequirePermission rejects callers whose role lacks perm
func RequirePermission(authz *security.AuthorizationService, auditLog *audit.Logger, perm security.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r.Context())
			if claims == nil {
				writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized)
				return
			}
			if err := authz.ValidatePermission(claims.Role, perm); err != nil {
				auditLog.LogDenied(r.Context(), claims.UserID, "missing permission "+string(perm))
				writeError(w, http.StatusForbidden, domain.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginLimit bounds login attempts per client address
type LoginLimit struct {
	Requests int
	Window   time.Duration
}

// RateLimitMiddleware limits authenticated callers per user and login
// attempts per client address
func RateLimitMiddleware(limiter *ratelimit.Limiter, login LoginLimit, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == LoginPath {
				ip := clientIP(r)
				if !limiter.AllowStrict(ip, login.Requests, login.Window) {
					log.Warn("login rate limit exceeded", slog.String("client_ip", ip))
					writeError(w, http.StatusTooManyRequests, domain.ErrInvalidRequest.WithMessage("Too many login attempts."))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			key := ""
			if claims := GetClaimsFromContext(r.Context()); claims != nil {
				key = "user:" + strconv.FormatInt(claims.UserID, 10)
			}
			if !limiter.Allow(key) {
				writeError(w, http.StatusTooManyRequests, domain.ErrInvalidRequest.WithMessage("Rate limit exceeded."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type auditWriter struct {
	http.ResponseWriter
	status int
}

func (w *auditWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *auditWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// AuditMiddleware records every mutating request once it has been served.
// It must wrap the mux directly so the matched pattern is visible.
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}

			aw := &auditWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(aw, r)

			// never audit credentials
			if r.URL.Path == LoginPath {
				return
			}
			entry := audit.Entry{
				Action:     r.Method,
				Resource:   r.URL.Path,
				ResourceID: r.PathValue("id"),
				Status:     aw.status,
			}
			if r.Pattern != "" {
				entry.Resource = r.Pattern
			}
			if claims := GetClaimsFromContext(r.Context()); claims != nil {
				entry.UserID = claims.UserID
				entry.Role = string(claims.Role)
			}
			auditLog.LogAction(r.Context(), entry)
		})
	}
}

// WithClaims stores authenticated claims in ctx
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey{}, claims)
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c, ok := ctx.Value(ClaimsContextKey{}).(*auth.Claims); ok {
		return c
	}
	return nil
}
