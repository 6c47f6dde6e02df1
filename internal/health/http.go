package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TimestampLayout matches the ISO-8601 timestamps emitted by the health payload.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// ServiceInfo is the static part of the health payload.
type ServiceInfo struct {
	Version       string
	Environment   string
	TravelModule  bool
	ChatbotModule bool
	StartedAt     time.Time
}

// Response is the body of GET /health.
type Response struct {
	Status        string                 `json:"status"`
	Timestamp     string                 `json:"timestamp"`
	TravelModule  bool                   `json:"travel_module"`
	ChatbotModule bool                   `json:"chatbot_module"`
	Version       string                 `json:"version"`
	Uptime        float64                `json:"uptime"`
	Environment   string                 `json:"environment"`
	Message       string                 `json:"message,omitempty"`
	Checks        map[string]CheckResult `json:"checks,omitempty"`
}

// HTTPHandler provides HTTP endpoints for health checks
type HTTPHandler struct {
	reporter Reporter
	info     ServiceInfo
	logger   *zap.Logger
	now      func() time.Time
}

// NewHTTPHandler creates a new HTTP handler for health checks
func NewHTTPHandler(reporter Reporter, info ServiceInfo, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if info.StartedAt.IsZero() {
		info.StartedAt = time.Now()
	}
	return &HTTPHandler{reporter: reporter, info: info, logger: logger, now: time.Now}
}

// RegisterRoutes registers health check endpoints
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/health/ready", h.handleReadiness)
	r.Get("/health/live", h.handleLiveness)
}

// handleHealth answers 200 for healthy and degraded, 503 when a critical
// dependency fails.
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	detailed := h.reporter.GetDetailedHealth(r.Context())
	now := h.now()

	resp := Response{
		Status:        detailed.Overall.Status.String(),
		Timestamp:     now.Format(TimestampLayout),
		TravelModule:  h.info.TravelModule,
		ChatbotModule: h.info.ChatbotModule,
		Version:       h.info.Version,
		Uptime:        now.Sub(h.info.StartedAt).Seconds(),
		Environment:   h.info.Environment,
		Message:       detailed.Overall.Message,
		Checks:        detailed.Components,
	}

	status := http.StatusOK
	if detailed.Overall.Status == StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, resp)
}

// handleReadiness returns readiness status (for k8s readiness probes)
func (h *HTTPHandler) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ready := h.reporter.GetDetailedHealth(r.Context()).Overall.Ready

	status, message := http.StatusOK, "ready"
	if !ready {
		status, message = http.StatusServiceUnavailable, "not ready"
	}
	h.writeJSON(w, status, map[string]any{
		"status":    message,
		"ready":     ready,
		"timestamp": h.now().Format(TimestampLayout),
	})
}

// handleLiveness never runs dependency checks.
func (h *HTTPHandler) handleLiveness(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "alive",
		"live":      true,
		"timestamp": h.now().Format(TimestampLayout),
	})
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}
