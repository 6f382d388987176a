package handler

import (
	"net/http"

	"github.com/aryan0dhankhar/formationhub/internal/security"
	"github.com/aryan0dhankhar/formationhub/internal/security/audit"
	"github.com/aryan0dhankhar/formationhub/internal/security/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups every HTTP handler mounted by NewRouter
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Formations    *FormationHandler
	Sessions      *SessionHandler
	Enrollments   *EnrollmentHandler
	Signatures    *SignatureHandler
	Groups        *GroupHandler
	Briefs        *BriefHandler
	SignatureFeed *SignatureFeedHandler
	Health        *HealthHandler
}

// NewRouter mounts the API routes. Authentication runs outside the router;
// each route here only checks the caller's permission.
func NewRouter(h Handlers, authz *security.AuthorizationService, auditLog *audit.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	route := func(pattern string, perm security.Permission, fn http.HandlerFunc) {
		mux.Handle(pattern, middleware.RequirePermission(authz, auditLog, perm)(fn))
	}

	mux.HandleFunc("GET /healthz", h.Health.Health)
	mux.HandleFunc("GET /readyz", h.Health.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST "+middleware.LoginPath, h.Auth.Login)
	route("POST /api/auth/change-password", security.PermChangePassword, h.Auth.ChangePassword)

	route("POST /api/users", security.PermManageUsers, h.Users.Create)
	route("GET /api/users", security.PermReadUsers, h.Users.List)
	route("GET /api/users/{id}", security.PermReadUsers, h.Users.Get)
	route("PATCH /api/users/{id}", security.PermManageUsers, h.Users.Update)
	route("DELETE /api/users/{id}", security.PermManageUsers, h.Users.Delete)

	route("POST /api/formations", security.PermManageFormations, h.Formations.Create)
	route("GET /api/formations", security.PermReadFormations, h.Formations.List)
	route("GET /api/formations/{id}", security.PermReadFormations, h.Formations.Get)
	route("PATCH /api/formations/{id}", security.PermManageFormations, h.Formations.Update)
	route("DELETE /api/formations/{id}", security.PermManageFormations, h.Formations.Delete)

	route("POST /api/sessions", security.PermManageSessions, h.Sessions.Create)
	route("GET /api/sessions", security.PermReadSessions, h.Sessions.List)
	route("GET /api/sessions/formation/{formation_id}", security.PermReadSessions, h.Sessions.ListByFormation)
	route("GET /api/sessions/teacher/{teacher_id}", security.PermReadSessions, h.Sessions.ListByTeacher)
	route("GET /api/sessions/formation/{formation_id}/teacher/{teacher_id}", security.PermReadSessions, h.Sessions.GetByFormationAndTeacher)
	route("GET /api/sessions/start-date/{date}", security.PermReadSessions, h.Sessions.GetByStartDate)
	route("GET /api/sessions/end-date/{date}", security.PermReadSessions, h.Sessions.GetByEndDate)
	route("GET /api/sessions/{id}", security.PermReadSessions, h.Sessions.Get)
	route("PATCH /api/sessions/{id}", security.PermManageSessions, h.Sessions.Update)
	route("DELETE /api/sessions/{id}", security.PermManageSessions, h.Sessions.Delete)

	route("POST /api/enrollments", security.PermManageEnrollments, h.Enrollments.Create)
	route("GET /api/enrollments", security.PermReadEnrollments, h.Enrollments.List)
	route("GET /api/enrollments/session/{session_id}", security.PermReadEnrollments, h.Enrollments.ListBySession)
	route("GET /api/enrollments/student/{student_id}", security.PermReadEnrollments, h.Enrollments.ListByStudent)
	route("GET /api/enrollments/{id}", security.PermReadEnrollments, h.Enrollments.Get)
	route("PATCH /api/enrollments/{id}", security.PermManageEnrollments, h.Enrollments.Update)
	route("DELETE /api/enrollments/{id}", security.PermManageEnrollments, h.Enrollments.Delete)

	route("POST /api/signatures", security.PermSign, h.Signatures.Sign)
	route("GET /api/signatures/session/{session_id}/date/{date}", security.PermReadSignatures, h.Signatures.ListBySessionAndDate)
	route("GET /api/signatures/session/{session_id}/user/{user_id}", security.PermReadSignatures, h.Signatures.ListBySessionAndUser)
	route("GET /api/signatures/{id}", security.PermReadSignatures, h.Signatures.Get)
	route("DELETE /api/signatures/{id}", security.PermDeleteSignatures, h.Signatures.Delete)

	route("POST /api/groups", security.PermManageGroups, h.Groups.Create)
	route("GET /api/groups/session/{session_id}", security.PermReadGroups, h.Groups.ListBySession)
	route("GET /api/groups/{id}", security.PermReadGroups, h.Groups.Get)
	route("PATCH /api/groups/{id}", security.PermManageGroups, h.Groups.Update)
	route("DELETE /api/groups/{id}", security.PermManageGroups, h.Groups.Delete)

	route("POST /api/briefs", security.PermManageBriefs, h.Briefs.Create)
	route("GET /api/briefs", security.PermReadBriefs, h.Briefs.List)
	route("GET /api/briefs/session/{session_id}", security.PermReadBriefs, h.Briefs.ListBySession)
	route("GET /api/briefs/student/{student_id}", security.PermReadBriefs, h.Briefs.ListByStudent)
	route("GET /api/briefs/{id}", security.PermReadBriefs, h.Briefs.Get)
	route("PATCH /api/briefs/{id}", security.PermManageBriefs, h.Briefs.Update)
	route("DELETE /api/briefs/{id}", security.PermManageBriefs, h.Briefs.Delete)

	route("GET /ws/sessions/{id}/signatures", security.PermReadSignatures, h.SignatureFeed.ServeHTTP)

	return mux
}
