package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/declabot/internal/handler"
	"github.com/declabot/internal/middleware"
)

func (app *App) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	// Health check
	r.Get("/api/health", handler.Health())

	// Public command intake
	events := handler.NewEventsHandler(app.bot, app.collector, app.blobs, app.config.MaxUploadSizeMB, app.logger)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(rate.Limit(5), 10))

		r.Post("/api/events", events.Command)
		r.Post("/api/events/attachment", events.Attachment)
	})

	// Admin actions, token-guarded
	admin := handler.NewAdminHandler(app.store, app.logger)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminAuth(app.config.AdminTokenHash))

		r.Post("/api/admin/users/{id}/approve", admin.Approve)
		r.Get("/api/admin/users/{id}/profile", admin.Profile)
	})

	return r
}
