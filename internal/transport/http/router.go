package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/ums-dashboard/bff/internal/application/auth"
	"github.com/ums-dashboard/bff/internal/config"
	"github.com/ums-dashboard/bff/internal/transport/http/handler"
	appmiddleware "github.com/ums-dashboard/bff/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(appmiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		// Session identity travels in cookies, so credentials must be allowed.
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to the public auth endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(deps.Backend, deps.Sealer)
	authH := handler.NewAuthHandler(authSvc, deps.Sealer)
	healthH := handler.NewHealthHandler()
	proxy := handler.NewProxy(deps.Backend)

	r.Route("/api", func(r chi.Router) {
		// ── Public routes (no session cookie) ────────────────────────────────
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/signup", authH.Signup)
		r.With(sensitiveRL.Limit).Post("/auth/verify", authH.Verify)
		r.Post("/auth/logout", authH.Logout)

		// ── Relayed routes (sealed session cookie required) ──────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Session(deps.Sealer))

			r.Get("/users/me", proxy.Forward(http.MethodGet, "/api/v1/users/me"))
			r.Put("/users/me", proxy.Forward(http.MethodPut, "/api/v1/users/me", handler.WithJSONBody()))
			r.Post("/users/me/avatar", proxy.Forward(http.MethodPost, "/api/v1/users/me/avatar", handler.WithMultipartBody()))

			r.Get("/teams", proxy.Forward(http.MethodGet, "/api/v1/teams"))
			r.Post("/teams", proxy.Forward(http.MethodPost, "/api/v1/teams", handler.WithJSONBody()))
			r.Post("/teams/join", proxy.Forward(http.MethodPost, "/api/v1/teams/join", handler.WithJSONBody()))
			r.Get("/teams/{teamID}", proxy.Forward(http.MethodGet, "/api/v1/teams/{teamID}"))
			r.Get("/teams/{teamID}/members", proxy.Forward(http.MethodGet, "/api/v1/teams/{teamID}/members"))

			r.Get("/events", proxy.Forward(http.MethodGet, "/api/v1/events", handler.WithQuery("page", "limit", "type")))
			r.Get("/events/{eventID}", proxy.Forward(http.MethodGet, "/api/v1/events/{eventID}"))
			r.Post("/events/{eventID}/register", proxy.Forward(http.MethodPost, "/api/v1/events/{eventID}/register", handler.WithJSONBody()))

			r.Get("/payments", proxy.Forward(http.MethodGet, "/api/v1/payments"))
			r.Post("/payments/orders", proxy.Forward(http.MethodPost, "/api/v1/payments/orders", handler.WithJSONBody()))
			r.Post("/payments/verify", proxy.Forward(http.MethodPost, "/api/v1/payments/verify", handler.WithJSONBody()))

			r.Get("/notifications", proxy.Forward(http.MethodGet, "/api/v1/notifications"))
			r.Put("/notifications/{notificationID}/read", proxy.Forward(http.MethodPut, "/api/v1/notifications/{notificationID}/read"))

			// Admin routes: authorization lives in the relayed token, so the
			// backend is the one that says no.
			r.Get("/admin/users", proxy.Forward(http.MethodGet, "/api/v1/admin/users", handler.WithQuery("page", "limit")))
			r.Put("/admin/users/{userID}/role", proxy.Forward(http.MethodPut, "/api/v1/admin/users/{userID}/role", handler.WithJSONBody()))
			r.Get("/admin/stats", proxy.Forward(http.MethodGet, "/api/v1/admin/stats"))
		})
	})

	return r
}
