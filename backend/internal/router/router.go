package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itchan-dev/eventboard/backend/internal/setup"
	"github.com/itchan-dev/eventboard/shared/csrf"
	"github.com/itchan-dev/eventboard/shared/domain"
	mw "github.com/itchan-dev/eventboard/shared/middleware"
	"github.com/itchan-dev/eventboard/shared/middleware/metrics"
)

// New creates the chi router with all the routes.
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// setup CORS for frontend
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", csrf.HeaderName},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	// Probes and metrics stay outside the API header policy
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// Stored paths double as URLs
	r.Get("/"+domain.UploadsDir+"/*", h.ServeBlob(domain.UploadsDir))
	r.Get("/"+domain.NoticesDir+"/*", h.ServeBlob(domain.NoticesDir))

	r.Group(func(r chi.Router) {
		// Backend CSP: strict policy (JSON API only, no scripts/styles needed)
		r.Use(mw.SecurityHeadersWithCSP(deps.Config.Public.SecureCookies, mw.APIContentSecurityPolicy))

		// Credential endpoints are throttled per IP
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimitByIP(deps.Config.Public.LoginRateLimit))
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})
		r.With(authMw.OptionalAuth(), mw.ValidateCSRFToken()).Post("/logout", h.Logout)

		// Public reads
		r.Get("/events", h.ListEvents)
		r.Get("/images/{event}", h.ListImages)
		r.Get("/public-events", h.PublicEvents)
		r.Get("/events-stats", h.EventStats)
		r.Get("/notices", h.ListNotices)

		// Everything that changes state needs a token
		r.Group(func(r chi.Router) {
			r.Use(authMw.NeedAuth())
			r.Use(mw.ValidateCSRFToken())

			r.Get("/dashboard", h.Dashboard)
			r.Get("/user-info", h.UserInfo)

			r.Post("/upload", h.UploadImages)
			r.Post("/create-event", h.CreateEvent)
			r.Delete("/delete-event/{event}", h.DeleteEvent)
			r.Put("/rename-event", h.RenameEvent)
			r.Post("/delete-image", h.DeleteImage)
			r.Post("/set-cover", h.SetCover)

			r.Post("/add-notice", h.AddNotice)
			r.Put("/notice/{id}", h.UpdateNotice)
			r.Delete("/notice/{id}", h.DeleteNotice)
		})
	})

	return r
}
