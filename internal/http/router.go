package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/contacts-api/internal/auth"
	"github.com/redmonkez12/contacts-api/internal/config"
	"github.com/redmonkez12/contacts-api/internal/contact"
	"github.com/redmonkez12/contacts-api/internal/httputil"
	"github.com/redmonkez12/contacts-api/internal/logging"
	"github.com/redmonkez12/contacts-api/internal/ratelimit"
	"github.com/redmonkez12/contacts-api/internal/user"
)

// PingFunc checks that the database answers
type PingFunc func(ctx context.Context) error

// Dependencies are the handlers and services the router mounts
type Dependencies struct {
	Auth           *auth.Handler
	AuthMiddleware *auth.Middleware
	Users          *user.Handler
	Contacts       *contact.Handler
	RateLimiter    ratelimit.Counter
	Proxies        ratelimit.Proxies
	PingDB         PingFunc
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled", "path", "/swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthchecker", handleHealthChecker(deps.PingDB))

		r.Route("/auth", deps.Auth.Routes)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)

			r.Route("/users", func(r chi.Router) {
				r.With(ratelimit.PerIP(deps.RateLimiter, deps.Proxies, "me", cfg.RateLimit.MeRequests, cfg.RateLimit.MeWindow)).
					Get("/me", deps.Users.Me)
				r.With(deps.AuthMiddleware.RequireAdmin).
					Patch("/avatar", deps.Users.UpdateAvatar)
			})

			r.Route("/contacts", deps.Contacts.Routes)
		})
	})

	return r
}

// handleHealth reports that the process is up
// @Summary      Liveness check
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}

// handleHealthChecker checks the database connection
// @Summary      Database health check
// @Tags         health
// @Produce      json
// @Success      200 {object} httputil.MessageResponse
// @Failure      500 {object} httputil.ErrorResponse
// @Router       /api/healthchecker [get]
func handleHealthChecker(ping PingFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ping(r.Context()); err != nil {
			logging.GetLoggerFromContext(r.Context()).Error("database health check failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "Error connecting to the database", httputil.CodeDatabaseError, http.StatusInternalServerError)
			return
		}
		httputil.RespondMessage(w, "Welcome to the Contacts API!", http.StatusOK)
	}
}
