package handler

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/portfolio/backend/internal/repository"
)

// Handler serves the shared endpoints (health, CORS) that need no service.
type Handler struct {
	db   repository.DB
	cors func(http.Handler) http.Handler
}

// New creates a Handler. allowedOrigins is the list of front-end origins
// permitted to call the API from a browser.
func New(db repository.DB, allowedOrigins []string) *Handler {
	return &Handler{
		db: db,
		cors: cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	}
}

func (h *Handler) CORS(next http.Handler) http.Handler {
	return h.cors(next)
}
