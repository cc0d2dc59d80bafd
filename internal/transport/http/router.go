package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter mounts the student API, the attempt feed and the health check.
// An empty origins list reflects any request origin.
func NewRouter(api *APIHandler, ws *WSHandler, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	corsOptions := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(origins) > 0 {
		corsOptions.AllowedOrigins = origins
	} else {
		corsOptions.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
	}
	r.Use(cors.Handler(corsOptions))

	r.Get("/health", api.Health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/student/lookup", api.LookupStudent)
		r.Post("/attempt/start", api.StartAttempt)
		r.Get("/attempt/{attemptId}/quiz", api.AttemptQuiz)
	})
	if ws != nil {
		r.Get("/ws/assignments/{joinCode}/feed", ws.ServeFeed)
	}
	return r
}
