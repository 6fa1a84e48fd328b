package app

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/clearway/sentinel/internal/auth"
	"github.com/clearway/sentinel/internal/guard"
	"github.com/clearway/sentinel/internal/handler"
	adminhandler "github.com/clearway/sentinel/internal/handler/admin"
	"github.com/clearway/sentinel/internal/policy"
	"github.com/clearway/sentinel/internal/provider"
	"github.com/clearway/sentinel/internal/repository"
	"github.com/clearway/sentinel/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	JWTMgr *auth.JWTManager
	Logger *slog.Logger
	// External provider config
	GeoIPBaseURL   string
	GeoIPCacheTTL  time.Duration
	ResendAPIKey   string
	AlertFromEmail string
	SecurityTeamTo string
	// Rate limit on the decision endpoints, requests per minute per client
	RateLimitPerMinute int
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	jwtMgr := deps.JWTMgr
	logger := deps.Logger

	// Repositories
	ruleRepo := repository.NewGeoRuleRepository()
	intelRepo := repository.NewThreatIntelRepository()
	patternRepo := repository.NewAttackPatternRepository()
	deviceRepo := repository.NewDeviceRepository()
	sessionRepo := repository.NewSessionRepository()
	incidentRepo := repository.NewIncidentRepository()
	outboxRepo := repository.NewOutboxRepository()

	// External providers
	geoClient := provider.NewGeoIPClient(deps.GeoIPBaseURL, deps.Redis, deps.GeoIPCacheTTL, logger)
	notifier := provider.NewResendNotifier(deps.ResendAPIKey, deps.AlertFromEmail, deps.SecurityTeamTo, logger)

	// Services
	failures := policy.DefaultFailurePolicy()
	accessSvc := service.NewAccessService(pool, ruleRepo, intelRepo, patternRepo,
		deviceRepo, sessionRepo, incidentRepo, outboxRepo, failures, logger)
	enrichSvc := service.NewEnrichService(pool, sessionRepo, incidentRepo, outboxRepo,
		geoClient, notifier, failures, logger)

	// Handlers
	accessHandler := handler.NewAccessHandler(accessSvc)
	sessionHandler := handler.NewSessionHandler(enrichSvc)

	// Admin handlers
	incidentAdmin := adminhandler.NewIncidentAdminHandler(pool, incidentRepo)
	deviceAdmin := adminhandler.NewDeviceAdminHandler(pool, deviceRepo)
	ruleAdmin := adminhandler.NewRuleAdminHandler(pool, ruleRepo)

	// Rate limiter for decision endpoints
	limiter := guard.NewRateLimiter(deps.RateLimitPerMinute, time.Minute)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS)
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// Service-authenticated decision endpoints
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateService(jwtMgr))
		r.Use(handler.RateLimit(limiter))

		r.Post("/v1/access/check", accessHandler.Check)
		r.Post("/v1/sessions/enrich", sessionHandler.Enrich)
	})

	// Admin-authenticated review surface
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.AuthenticateAdmin(jwtMgr))

		r.Route("/organizations/{orgID}", func(r chi.Router) {
			r.Get("/incidents", incidentAdmin.ListIncidents)
			r.Get("/rules", ruleAdmin.ListRules)
			r.With(auth.RequireRole("admin")).Post("/rules", ruleAdmin.CreateRule)
		})

		r.Get("/incidents/{id}", incidentAdmin.GetIncident)
		r.Get("/users/{userID}/devices", deviceAdmin.ListUserDevices)
		r.With(auth.RequireRole("admin")).Patch("/rules/{id}/active", ruleAdmin.SetRuleActive)
	})

	return r
}
