package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig wires the HTTP surface
type RouterConfig struct {
	Sessions       *SessionHandler
	Middleware     *Middleware
	AllowedOrigins []string
	Ping           func(r *http.Request) error
}

// NewRouter builds the API router
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, Logging, middleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ping != nil {
			if err := cfg.Ping(r); err != nil {
				respondWithError(w, http.StatusServiceUnavailable, "Database unavailable", "Health check failed", err)
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(cfg.Middleware.RequireAuth)

		h := cfg.Sessions
		api.Get("/quizzes/{quizID}/sessions", h.History)
		api.Get("/quizzes/{quizID}/dashboard", h.Dashboard)
		api.Get("/sessions/{sessionID}", h.Resume)
		api.Get("/sessions/{sessionID}/results", h.Results)

		api.Group(func(mut chi.Router) {
			mut.Use(cfg.Middleware.RateLimit)
			mut.Post("/quizzes/{quizID}/sessions", h.CreateSession)
			mut.Post("/sessions/{sessionID}/navigate", h.Navigate)
			mut.Post("/sessions/{sessionID}/answers", h.SubmitAnswer)
			mut.Post("/sessions/{sessionID}/items/{position}/bookmark", h.ToggleBookmark)
			mut.Post("/sessions/{sessionID}/abandon", h.Abandon)
			mut.Post("/sessions/{sessionID}/complete", h.Complete)
			mut.Post("/sessions/{sessionID}/retry", h.Retry)
			mut.Patch("/sessions/{sessionID}", h.Rename)
			mut.Delete("/sessions/{sessionID}", h.Delete)
		})
	})

	return r
}
