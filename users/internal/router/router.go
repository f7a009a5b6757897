package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/compass-ms/usernotify/shared/middleware"
	"github.com/compass-ms/usernotify/shared/middleware/metrics"
	"github.com/compass-ms/usernotify/users/internal/setup"
)

// New wires all user service routes. The authenticator runs on every /api
// request; protected routes additionally require a bound identity.
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(metrics.Middleware("user-api"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.Config.Public.CorsOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	h := deps.Handler

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/user", func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)

		r.Post("/auth", h.Login)
		r.Post("/register", h.Register)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Require)

			r.Patch("/update/password", h.UpdatePassword)
			r.Get("/get", h.GetUsers)
			r.Get("/get/{email}", h.GetUserByEmail)
		})
	})

	return r
}
