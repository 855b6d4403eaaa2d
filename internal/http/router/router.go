package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/goil-app/notifications-api/internal/auth"
	"github.com/goil-app/notifications-api/internal/config"
	"github.com/goil-app/notifications-api/internal/http/handler"
	"github.com/goil-app/notifications-api/internal/http/middleware"
)

// Router assembles the HTTP surface: global middleware, the health probes
// and the guarded mobile API.
type Router struct {
	cfg                 *config.Config
	logger              *zap.Logger
	authMiddleware      *auth.Middleware
	sessionGuard        *middleware.SessionGuard
	rateLimiter         *middleware.RateLimiter
	healthHandler       *handler.HealthHandler
	notificationHandler *handler.NotificationHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	authMiddleware *auth.Middleware,
	sessionGuard *middleware.SessionGuard,
	rateLimiter *middleware.RateLimiter,
	healthHandler *handler.HealthHandler,
	notificationHandler *handler.NotificationHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		logger:              logger,
		authMiddleware:      authMiddleware,
		sessionGuard:        sessionGuard,
		rateLimiter:         rateLimiter,
		healthHandler:       healthHandler,
		notificationHandler: notificationHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)
	r.Use(chimiddleware.Timeout(rt.cfg.Server.RequestTimeoutDuration()))

	// Health probes
	r.Get("/health", rt.healthHandler.Health)
	r.Get("/health/db", rt.healthHandler.HealthDB)

	// Mobile API, behind the platform, token and session guards
	r.Route("/api/v2/notification", func(r chi.Router) {
		r.Use(rt.authMiddleware.Platform)
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.sessionGuard.Verify)

		r.Get("/{id}/me", rt.notificationHandler.GetNotification)
	})

	return r
}
