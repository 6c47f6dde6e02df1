// Package app wires configuration into the planning components shared by the
// HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Kocoro-lab/travelian/internal/circuitbreaker"
	"github.com/Kocoro-lab/travelian/internal/config"
	"github.com/Kocoro-lab/travelian/internal/db"
	"github.com/Kocoro-lab/travelian/internal/models"
	"github.com/Kocoro-lab/travelian/internal/personas"
	"github.com/Kocoro-lab/travelian/internal/ratecontrol"
	"github.com/Kocoro-lab/travelian/internal/templates"
	"github.com/Kocoro-lab/travelian/internal/workflows"
)

// Version is reported by /health and the CLI.
const Version = "1.0.0"

// App holds the long-lived components built from configuration.
type App struct {
	Config       *config.Config
	Personas     *personas.Registry
	Plan         *templates.Plan
	Gateway      *models.Gateway
	Orchestrator *workflows.Orchestrator

	// LedgerDB and Ledger are nil unless the ledger is enabled and reachable.
	LedgerDB *db.Client
	Ledger   *db.Ledger

	logger *zap.Logger
}

// New builds the application. Catalogue or plan faults are fatal; an
// unreachable ledger is logged and the app runs without it. opts are passed
// to the orchestrator after the ledger recorder.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...workflows.Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, logger: logger}

	reg, err := loadPersonas(cfg.Catalogs.Personas, logger)
	if err != nil {
		return nil, err
	}
	a.Personas = reg

	plan, err := loadPlan(cfg.Catalogs.Tasks, reg, logger)
	if err != nil {
		return nil, err
	}
	a.Plan = plan

	a.Gateway = NewGateway(cfg.Model, logger)

	var orchOpts []workflows.Option
	if cfg.Ledger.Enabled {
		client, err := db.Open(ctx, db.Config{
			Driver:       cfg.Ledger.Driver,
			DSN:          cfg.Ledger.DSN,
			MaxOpenConns: cfg.Ledger.MaxOpenConns,
			Breaker:      cfg.Ledger.CircuitBreaker,
		}, logger)
		if err != nil {
			logger.Warn("Run ledger unavailable; continuing without it", zap.Error(err))
		} else {
			a.LedgerDB = client
			a.Ledger = db.NewLedger(client, logger)
			orchOpts = append(orchOpts, workflows.WithRecorder(a.Ledger))
		}
	}

	orch, err := workflows.NewOrchestrator(plan, a.Gateway, logger, append(orchOpts, opts...)...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Orchestrator = orch

	logger.Info("Application initialized",
		zap.String("model", a.Gateway.Model()),
		zap.Bool("default_credential", a.Gateway.HasCredential()),
		zap.Strings("stages", plan.Order),
		zap.Bool("ledger", a.Ledger != nil),
	)
	return a, nil
}

// NewGateway builds the model gateway with a breaker-wrapped HTTP client.
// Configured quotas are combined with the built-in provider quota only when set.
func NewGateway(cfg config.ModelConfig, logger *zap.Logger) *models.Gateway {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	doer := circuitbreaker.NewHTTPWrapper(httpClient, "gemini-http", "gemini", cfg.CircuitBreaker, logger)

	limit := cfg.RateLimit
	if limit.Enabled() {
		limit = ratecontrol.CombineLimits(limit, ratecontrol.LimitForProvider("gemini"))
	}
	if cfg.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set; requests must supply a credential")
	}

	return models.NewGateway(models.GatewayConfig{
		BaseURL:           cfg.BaseURL,
		Model:             cfg.Name,
		DefaultCredential: cfg.APIKey,
		CredentialPrefix:  cfg.CredentialPrefix,
		Generation:        cfg.Generation,
		RateLimit:         limit,
	}, doer, logger)
}

// Close releases the ledger connection, if any.
func (a *App) Close() error {
	if a.LedgerDB != nil {
		return a.LedgerDB.Close()
	}
	return nil
}

func loadPersonas(path string, logger *zap.Logger) (*personas.Registry, error) {
	if path == "" {
		reg, err := personas.LoadDefault(logger)
		if err != nil {
			return nil, fmt.Errorf("load personas: %w", err)
		}
		return reg, nil
	}
	cfg, err := personas.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load personas: %w", err)
	}
	return personas.NewRegistry(cfg, logger), nil
}

func loadPlan(path string, reg *personas.Registry, logger *zap.Logger) (*templates.Plan, error) {
	if path == "" {
		return templates.LoadDefault(reg, logger)
	}
	return templates.LoadFile(path, reg, logger)
}
