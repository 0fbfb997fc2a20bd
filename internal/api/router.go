package api

import (
	"context"
	"net/http"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"tutorbot/internal/config"
	"tutorbot/internal/moderation"
)

// UpdateDispatcher accepts webhook updates for asynchronous handling.
type UpdateDispatcher interface {
	Dispatch(ctx context.Context, update tgbotapi.Update)
}

// ApiDependencies holds what the HTTP handlers need.
type ApiDependencies struct {
	Config     *config.Config
	Moderation *moderation.Service
	Dispatcher UpdateDispatcher
}

// NewRouter builds the HTTP surface: health, webhook and the admin API.
func NewRouter(deps ApiDependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS", "PATCH", "DELETE", "POST", "PUT"},
		AllowedHeaders: []string{"X-CSRF-Token", "X-Requested-With", "Accept", "Accept-Version", "Content-Length",
			"Content-MD5", "Content-Type", "Date", "X-Api-Version", "X-Telegram-Auth"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := &apiHandlers{deps: deps}

	r.Get("/health", h.Health)
	r.Get("/", h.Health)
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.With(WebhookSecretMiddleware(deps.Config.WebhookSecret)).Post("/webhook", h.Webhook)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(AuthMiddleware(deps.Config.TelegramToken))
		r.Use(AdminMiddleware(deps.Moderation))
		r.Get("/stats", h.Stats)
		r.Get("/export", h.Export)
	})
	return r
}
