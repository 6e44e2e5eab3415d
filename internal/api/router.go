package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/countdown/internal/api/auth"
	"github.com/good-yellow-bee/countdown/internal/api/middleware"
	"github.com/good-yellow-bee/countdown/internal/api/storefront"
	timersapi "github.com/good-yellow-bee/countdown/internal/api/timers"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Create JWT service
	jwtService := auth.NewJWTService(s.config.JWTSecret, s.config.TokenTTL)

	// Create rate limiters
	ipLimiter := middleware.NewRateLimiter(s.config.RateLimitPerIP)
	shopLimiter := middleware.NewRateLimiter(s.config.RateLimitPerShop)

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Logger, s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		JSONError(w, ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		JSONError(w, ErrMethodNotAllowed)
	})

	// Public storefront endpoint, also reachable through the app proxy
	publicHandler := storefront.NewHandler(s.timers, s.config.PublicCacheMaxAge, s.config.Logger)
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicCORS())
		r.Use(middleware.RateLimitByIP(ipLimiter, s.config.TrustProxyHeaders))
		for _, path := range []string{"/api/timers", "/apps/count-down-timer/api/timers"} {
			r.Get(path, publicHandler.Current)
			r.Options(path, publicHandler.Current)
		}
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/timers", func(r chi.Router) {
			r.Use(middleware.JWTAuth(jwtService))
			r.Use(middleware.RateLimitByShop(shopLimiter))

			timerHandler := timersapi.NewHandler(s.timers, s.config.Logger)

			r.Get("/", timerHandler.List)
			r.Post("/", timerHandler.Create)
			r.Get("/current", timerHandler.Current)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", timerHandler.GetByID)
				r.Put("/", timerHandler.Update)
				r.Delete("/", timerHandler.Delete)
				r.Patch("/active", timerHandler.SetActive)
			})
		})
	})

	// Health checks (public, no rate limit)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/health/live", s.healthHandler.Live)
	r.Get("/health/ready", s.healthHandler.Ready)

	return r
}
