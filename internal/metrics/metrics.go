package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Plan run metrics
	PlanRunsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "travelian_plan_runs_started_total",
			Help: "Total number of plan runs started",
		},
	)

	PlanRunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelian_plan_runs_completed_total",
			Help: "Total number of plan runs completed",
		},
		[]string{"status"},
	)

	PlanRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "travelian_plan_run_duration_seconds",
			Help:    "Plan run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	// Section metrics
	SectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelian_sections_total",
			Help: "Total number of plan sections executed",
		},
		[]string{"task_id", "outcome", "error_kind"},
	)

	SectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travelian_section_duration_ms",
			Help:    "Section execution duration in milliseconds",
			Buckets: []float64{100, 500, 1000, 2000, 5000, 10000, 30000, 60000},
		},
		[]string{"task_id"},
	)

	// Chat metrics
	ChatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelian_chat_turns_total",
			Help: "Total number of chat turns",
		},
		[]string{"status"},
	)

	// Model gateway metrics
	ModelInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelian_model_invocations_total",
			Help: "Total number of model invocations",
		},
		[]string{"model", "status"},
	)

	ModelInvocationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travelian_model_invocation_latency_seconds",
			Help:    "Model invocation latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"model"},
	)

	ModelTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelian_model_tokens_total",
			Help: "Total number of tokens reported by the model provider",
		},
		[]string{"model", "type"},
	)

	ModelClientBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelian_model_client_builds_total",
			Help: "Total number of model clients constructed",
		},
		[]string{"source"},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelian_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travelian_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelian_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	// Catalog metrics
	CatalogValidationIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelian_catalog_validation_issues_total",
			Help: "Total number of task catalog validation issues by code",
		},
		[]string{"code"},
	)

	// Ledger metrics
	LedgerWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelian_ledger_writes_total",
			Help: "Total number of run ledger writes",
		},
		[]string{"status"},
	)
)

// RecordPlanRun records metrics for a completed plan run
func RecordPlanRun(status string, durationSeconds float64) {
	PlanRunsCompleted.WithLabelValues(status).Inc()
	PlanRunDuration.Observe(durationSeconds)
}

// RecordSection records metrics for one executed section
func RecordSection(taskID, outcome, errorKind string, durationMs float64) {
	SectionsTotal.WithLabelValues(taskID, outcome, errorKind).Inc()
	SectionDuration.WithLabelValues(taskID).Observe(durationMs)
}

// RecordModelInvocation records metrics for a model call
func RecordModelInvocation(model, status string, durationSeconds float64, promptTokens, candidateTokens int) {
	ModelInvocations.WithLabelValues(model, status).Inc()
	if durationSeconds > 0 {
		ModelInvocationLatency.WithLabelValues(model).Observe(durationSeconds)
	}
	if promptTokens > 0 {
		ModelTokens.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if candidateTokens > 0 {
		ModelTokens.WithLabelValues(model, "candidates").Add(float64(candidateTokens))
	}
}

// RecordHTTPRequest records metrics for an HTTP request
func RecordHTTPRequest(route, method, status string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(route, method, status).Inc()
	HTTPRequestDuration.WithLabelValues(route, method).Observe(durationSeconds)
}
