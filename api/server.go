/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     zerolog request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend
  5. Metrics:    Prometheus request latency by route

ROUTE GROUPS:
  /healthz              Store health (503 when the database is down)
  /metrics              Prometheus scrape endpoint
  /api/signup, /login   Public, rate limited per client IP
  /api/profile          Authenticated
  /api/requests/*       Authenticated, idempotent writes
  /api/notifications    Authenticated
  /api/team/*           Managers only
  /api/export/excel     Managers only
  /api/scenarios/*      Demo scenarios (disabled in production)

AUTHENTICATION:
  Bearer JWTs issued by /api/login. jwtauth.Verifier parses the token and
  Authenticator turns its claims into a Principal.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Authentication, rate limiting, request logging
  - cmd/server/main.go: Server startup
*/
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// RouterOptions carries the deployment-specific parts of the router.
type RouterOptions struct {
	CORSOrigins     []string
	RateLimitRPS    float64
	RateLimitBurst  int
	Redis           *redis.Client // nil disables idempotency keys
	Gatherer        prometheus.Gatherer
	EnableScenarios bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Content-Disposition", "Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(h.Metrics.Instrument)

	r.Get("/healthz", h.Health)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(RateLimitByIP(opts.RateLimitRPS, opts.RateLimitBurst))
			r.Post("/signup", h.Signup)
			r.Post("/login", h.Login)
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.Tokens.JWTAuth()))
			r.Use(Authenticator)
			r.Use(RateLimitByUser(opts.RateLimitRPS, opts.RateLimitBurst))
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/profile", h.GetProfile)
			r.Patch("/profile", h.UpdateProfile)

			r.Route("/requests", func(r chi.Router) {
				r.Use(Idempotency(opts.Redis, h.Logger))
				r.Get("/", h.ListRequests)
				r.Post("/", h.CreateRequest)
				r.Get("/{id}", h.GetRequest)
				r.Patch("/{id}", h.UpdateRequest)
				r.Delete("/{id}", h.DeleteRequest)
			})

			r.Get("/notifications", h.ListNotifications)
			r.Patch("/notifications", h.MarkNotificationsRead)

			// Manager routes
			r.Group(func(r chi.Router) {
				r.Use(RequireManager)
				r.Get("/team/balance", h.ListTeamBalances)
				r.Patch("/team/balance", h.SetTeamBalance)
				r.Patch("/team/{id}", h.UpdateMember)
				r.Delete("/team/{id}", h.RemoveMember)
				r.Get("/export/excel", h.ExportExcel)
			})
		})

		if opts.EnableScenarios {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
				r.Post("/reset", h.ResetDatabase)
			})
		}
	})

	return r
}
