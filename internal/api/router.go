package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/datasource-admin/internal/api/handlers"
	"github.com/nikhilbhutani/datasource-admin/internal/api/middleware"
	"github.com/nikhilbhutani/datasource-admin/internal/auth"
	"github.com/nikhilbhutani/datasource-admin/internal/config"
	"github.com/nikhilbhutani/datasource-admin/internal/datasource"
)

// Deps are the collaborators the HTTP layer needs. DB and Redis may be nil
// when the backend is not configured; readiness then skips that check.
type Deps struct {
	DataSources *datasource.Service
	Users       auth.UserStore
	DB          handlers.Pinger
	Redis       handlers.Pinger
}

type Router struct {
	mux    *chi.Mux
	cfg    *config.Config
	deps   Deps
	jwt    *auth.JWTMiddleware
	health *handlers.HealthHandler
	rl     *middleware.RateLimiter
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	return &Router{
		mux:    chi.NewRouter(),
		cfg:    cfg,
		deps:   deps,
		jwt:    auth.NewJWTMiddleware(cfg.Auth.JWTSecret, deps.Users),
		health: handlers.NewHealthHandler(deps.DB, deps.Redis),
		rl:     middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.HTTP.AllowedOrigins))
	r.Use(rt.rl.Limit)

	// Health endpoints (no auth)
	r.Get("/healthz", rt.health.Healthz)
	r.Get("/readyz", rt.health.Readyz)

	// Admin routes: authenticated superusers only
	r.Route("/admin", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)
		r.Use(auth.RequireSuperuser)

		dsH := handlers.NewDataSourceHandler(rt.deps.DataSources)
		r.Route("/datasources", func(r chi.Router) {
			r.Post("/", dsH.Create)
			r.Get("/", dsH.List)
			r.Get("/{id}", dsH.Get)
			r.Get("/{id}/overview", dsH.Overview)
		})
	})

	return r
}

// Close stops background work owned by the router.
func (rt *Router) Close() {
	rt.rl.Stop()
}
