package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/travelian/internal/health"
)

// RouterConfig assembles the HTTP surface.
type RouterConfig struct {
	Handler        *Handler
	Health         *health.HTTPHandler
	RateLimiter    *RateLimiter
	AllowedOrigins []string
	MetricsPath    string
	Logger         *zap.Logger
}

// NewRouter builds the chi router. RateLimiter, Health and MetricsPath are optional.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS(cfg.AllowedOrigins))

	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(r)
	}
	if cfg.MetricsPath != "" {
		r.Method(http.MethodGet, cfg.MetricsPath, promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware)
		}
		r.Post("/travel/plan", cfg.Handler.PlanTravel)
		r.Post("/chatbot/ask", cfg.Handler.AskChatbot)
	})
	r.Get("/travel/runs", cfg.Handler.ListRuns)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		cfg.Handler.writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		cfg.Handler.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}
