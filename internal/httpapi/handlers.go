package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Kocoro-lab/travelian/internal/db"
	"github.com/Kocoro-lab/travelian/internal/workflows"
)

// CredentialHeader optionally carries a caller-supplied Gemini API key.
const CredentialHeader = "X-Gemini-Api-Key"

const maxBodyBytes = 1 << 20

// Orchestrator runs plans and chat turns. *workflows.Orchestrator implements it.
type Orchestrator interface {
	RunFullPlan(ctx context.Context, req workflows.TravelRequest, credential string) (*workflows.PlanResult, error)
	RunChatTurn(ctx context.Context, message string, history []workflows.Message, credential string) (*workflows.ChatResult, error)
}

// RunLister lists recorded runs. *db.Ledger implements it.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]db.PlanRun, error)
}

// Handler serves the travel and chatbot endpoints.
type Handler struct {
	orch        Orchestrator
	runs        RunLister
	planTimeout time.Duration
	logger      *zap.Logger
}

// NewHandler creates the API handler. runs may be nil when no ledger is configured.
func NewHandler(orch Orchestrator, runs RunLister, planTimeout time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{orch: orch, runs: runs, planTimeout: planTimeout, logger: logger}
}

// PlanTravel handles POST /travel/plan.
func (h *Handler) PlanTravel(w http.ResponseWriter, r *http.Request) {
	var body PlanRequest
	if !h.decode(w, r, &body) {
		return
	}
	req := body.toTravelRequest()
	if err := req.Validate(); err != nil {
		var verr *workflows.ValidationError
		if errors.As(err, &verr) {
			h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: verr.Problems})
			return
		}
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := r.Context()
	if h.planTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.planTimeout)
		defer cancel()
	}

	result, err := h.orch.RunFullPlan(ctx, req, credentialFrom(r))
	if err != nil {
		h.logger.Error("Plan run failed", zap.Error(err), zap.String("destination", req.Destination))
		h.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error planning travel: %v", err))
		return
	}
	h.writeJSON(w, http.StatusOK, newPlanResponse(req, result))
}

// AskChatbot handles POST /chatbot/ask.
func (h *Handler) AskChatbot(w http.ResponseWriter, r *http.Request) {
	var body ChatRequest
	if !h.decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		h.writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := h.orch.RunChatTurn(r.Context(), body.Message, body.History, credentialFrom(r))
	if err != nil {
		h.logger.Error("Chat turn failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing chatbot request: %v", err))
		return
	}
	h.writeJSON(w, http.StatusOK, ChatResponse{Response: result.Response, History: result.History})
}

// ListRuns handles GET /travel/runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		h.writeError(w, http.StatusNotFound, "run ledger is not enabled")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			h.writeError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}
	runs, err := h.runs.RecentRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "run ledger unavailable")
		return
	}
	if runs == nil {
		runs = []db.PlanRun{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func credentialFrom(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(CredentialHeader))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, errorResponse{Detail: detail})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
