package handlers

import (
	"net/http"

	"aponte/internal/metrics"
	"aponte/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDeps is everything the HTTP router serves
type RouterDeps struct {
	Users     *UserHandler
	Profiles  *ProfileHandler
	Matches   *MatchHandler
	Photos    *PhotoHandler
	WebSocket *WebSocketHandler
	Tokens    middleware.TokenValidator
	Metrics   *metrics.Metrics
}

// NewRouter wires the public contract onto a chi router
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(d.Metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", d.Users.Register)
		r.Post("/auth/login", d.Users.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(d.Tokens))
			r.Put("/users/me/push-token", d.Users.SetPushToken)
			r.Get("/profiles/user/{userId}", d.Profiles.Get)
			r.Put("/profiles/user/{userId}", d.Profiles.Update)
			r.Get("/matches/today", d.Matches.Today)
			r.Get("/matches/{matchId}/messages", d.Matches.ListMessages)
			r.Post("/matches/{matchId}/messages", d.Matches.SendMessage)
		})
	})

	r.Route("/photos", func(r chi.Router) {
		// image fetches come from image loaders without credentials
		r.Get("/{profileId}", d.Photos.Fetch)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(d.Tokens))
			r.Post("/upload", d.Photos.Upload)
			r.Delete("/{profileId}", d.Photos.Delete)
		})
	})

	if d.WebSocket != nil {
		r.Get("/ws", d.WebSocket.HandleWebSocket)
	}

	return r
}
