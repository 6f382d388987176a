package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/featureflags"
	"github.com/aryan0dhankhar/formationhub/internal/handler"
	"github.com/aryan0dhankhar/formationhub/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/formationhub/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/formationhub/internal/observability/metrics"
	"github.com/aryan0dhankhar/formationhub/internal/observability/requestid"
	"github.com/aryan0dhankhar/formationhub/internal/observability/tracing"
	"github.com/aryan0dhankhar/formationhub/internal/realtime"
	"github.com/aryan0dhankhar/formationhub/internal/repository"
	"github.com/aryan0dhankhar/formationhub/internal/repository/memory"
	"github.com/aryan0dhankhar/formationhub/internal/security"
	"github.com/aryan0dhankhar/formationhub/internal/security/audit"
	"github.com/aryan0dhankhar/formationhub/internal/security/auth"
	"github.com/aryan0dhankhar/formationhub/internal/security/middleware"
	"github.com/aryan0dhankhar/formationhub/internal/security/ratelimit"
	"github.com/aryan0dhankhar/formationhub/internal/service"
	"github.com/aryan0dhankhar/formationhub/internal/worker"
	"github.com/aryan0dhankhar/formationhub/pkg/cache"
	"github.com/aryan0dhankhar/formationhub/pkg/config"
	"github.com/aryan0dhankhar/formationhub/pkg/database"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting formationhub server", slog.String("environment", cfg.Environment))

	if err := run(cfg, log); err != nil {
		log.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: "formationhub",
		Environment: cfg.Environment,
		SampleRatio: cfg.TraceSampleRatio,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// 4. Entity store
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	// 5. Cache
	var (
		sessionCache cache.Store = cache.New()
		redisPinger  handler.Pinger
	)
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		sessionCache = redis.NewCache(redisClient, "formationhub:", log)
		redisPinger = redisClient
		log.Info("using redis cache")
	}

	// 6. Services
	hub := realtime.NewHub(log)
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
	flags := featureflags.FromEnv(os.LookupEnv)
	log.Info("feature flags", slog.Any("flags", flags))
	sessionService := service.NewSessionService(store, sessionCache, service.SessionConfig{
		RequireTrainerRole: flags.Enabled(featureflags.EnforceTrainerRole),
		CacheTTL:           cfg.CacheTTL,
	}, log)

	// 7. Handlers
	h := handler.Handlers{
		Auth:          handler.NewAuthHandler(service.NewAuthService(store.Users(), tokenManager, log), log),
		Users:         handler.NewUserHandler(service.NewUserService(store, log), log),
		Formations:    handler.NewFormationHandler(service.NewFormationService(store, sessionCache, cfg.CacheTTL, log), log),
		Sessions:      handler.NewSessionHandler(sessionService, log),
		Enrollments:   handler.NewEnrollmentHandler(service.NewEnrollmentService(store, log), log),
		Signatures:    handler.NewSignatureHandler(service.NewSignatureService(store, hub, log), security.NewAuthorizationServiceV2(log), log),
		Groups:        handler.NewGroupHandler(service.NewGroupService(store, log), log),
		Briefs:        handler.NewBriefHandler(service.NewBriefService(store, log), log),
		SignatureFeed: handler.NewSignatureFeedHandler(hub, sessionService, cfg.CORSAllowedOrigins, log),
		Health:        handler.NewHealthHandler(store, redisPinger, log),
	}

	// 7a. Security components
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	defer rateLimiter.Stop()
	auditLogger := audit.NewLogger(log)

	// 8. Routes and middleware: request ID -> CORS -> JWT -> rate limit -> audit -> metrics.
	// Audit and metrics read the matched pattern, so nothing between them and
	// the mux may replace the request.
	mux := handler.NewRouter(h, security.NewAuthorizationService(log), auditLogger)
	var root http.Handler = metrics.HTTPMetricsMiddleware(mux)
	root = middleware.ValidateJSONContentType(log)(root)
	root = middleware.AuditMiddleware(auditLogger)(root)
	root = middleware.RateLimitMiddleware(rateLimiter, middleware.LoginLimit{
		Requests: cfg.LoginRateRequests,
		Window:   cfg.LoginRateWindow,
	}, log)(root)
	root = middleware.JWTMiddleware(tokenManager, log)(root)
	root = withCORS(cfg.CORSAllowedOrigins, root)
	root = requestid.Middleware(withRequestLog(root, log))
	root = otelhttp.NewHandler(root, "formationhub")

	// 9. Session status worker
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()
	go worker.NewStatusWorker(sessionService, log, cfg.StatusSyncInterval).Start(workerCtx)

	// 10. HTTP server
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:     root,
		ReadTimeout: 15 * time.Second,
		// websocket feeds stay open; the handler sets its own write deadlines
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			slog.Int("port", cfg.ServerPort),
			slog.Int("rate_limit", cfg.RateLimitRequests),
			slog.Duration("rate_limit_window", cfg.RateLimitWindow),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
	return nil
}

// openStore connects to Postgres when DATABASE_URL is set and falls back to
// the in-memory store otherwise
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")
		return memory.NewStore(), nil
	}

	pool, err := database.NewConnectionPool(ctx, &database.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, log)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := repository.RunMigrations(ctx, pool.GetDB()); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("database migrations applied")
	}
	return repository.NewPostgresStore(pool.GetDB(), cfg.TxMaxAttempts, log), nil
}

// withCORS honors the configured origins
func withCORS(allowed []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(allowed, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(allowed) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", allowed[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, "+requestid.Header)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// withRequestLog logs every request once served
func withRequestLog(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("request completed",
			slog.String("request_id", requestid.FromContext(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
