// Package httpapi exposes the chat application over HTTP.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lewisedginton/persona_chatbot/pkg/logger"
	"github.com/lewisedginton/persona_chatbot/pkg/metrics"
)

// RouterConfig bundles the router's dependencies.
type RouterConfig struct {
	Handlers       *Handlers
	Auth           Authenticator
	Logger         logger.Logger
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

// NewRouter builds the HTTP routing tree. Health and metrics are public;
// everything under /api requires authentication.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cfg.Logger.HTTPMiddleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.HTTPMiddleware())
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", cfg.Handlers.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(requireAuth(cfg.Auth))

		r.Get("/roles", cfg.Handlers.ListRoles)
		r.Post("/roles/{id}/knowledge", cfg.Handlers.StoreRoleKnowledge)

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", cfg.Handlers.CreateConversation)
			r.Get("/", cfg.Handlers.ListConversations)
			r.Get("/{id}", cfg.Handlers.GetConversation)
			r.Delete("/{id}", cfg.Handlers.DeleteConversation)
			r.Get("/{id}/messages", cfg.Handlers.ListMessages)
			r.Post("/{id}/messages", cfg.Handlers.SendMessage)
			r.Post("/{id}/summary", cfg.Handlers.StoreConversationSummary)
		})

		r.Get("/memories/search", cfg.Handlers.SearchMemories)

		r.Route("/preferences", func(r chi.Router) {
			r.Get("/", cfg.Handlers.GetPreferences)
			r.Post("/", cfg.Handlers.SetPreference)
		})
	})

	return r
}
