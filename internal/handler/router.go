package handler

import (
	"net/http"
	"time"

	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/internal/repository"
	"github.com/portfolio/backend/internal/service"
)

// RouterConfig carries everything the HTTP layer needs.
type RouterConfig struct {
	DB             repository.DB
	ContactService service.ContactService
	Metrics        *metrics.Metrics
	AllowedOrigins []string

	// ContactRateLimit submissions per ContactRateWindow per client IP.
	ContactRateLimit  int
	ContactRateWindow time.Duration
	TrustedProxyCount int

	// AdminAuth, when set, guards GET /api/contact-messages.
	AdminAuth func(http.Handler) http.Handler
}

// NewRouter registers all routes and wraps them in the middleware chain:
// request logging, metrics, security headers, then CORS.
func NewRouter(cfg RouterConfig) http.Handler {
	h := New(cfg.DB, cfg.AllowedOrigins)
	contactHandler := NewContactHandler(cfg.ContactService)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.Health)
	mux.Handle("GET /metrics", cfg.Metrics.Handler())

	limit := ContactRateLimit(cfg.ContactRateLimit, cfg.ContactRateWindow, cfg.TrustedProxyCount)
	mux.Handle("POST /api/contact", limit(http.HandlerFunc(contactHandler.Submit)))

	var list http.Handler = http.HandlerFunc(contactHandler.List)
	if cfg.AdminAuth != nil {
		list = cfg.AdminAuth(list)
	}
	mux.Handle("GET /api/contact-messages", list)

	return RequestLogger(cfg.Metrics.Middleware(SecurityHeaders(h.CORS(mux))))
}
