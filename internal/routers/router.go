package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"codesync/internal/api"
)

func New(h *api.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/api/v1/healthz", h.Health)
	r.Get("/api/v1/rooms/{roomId}/users", h.RoomUsers)

	r.HandleFunc("/ws", h.SessionWS)

	return r
}
