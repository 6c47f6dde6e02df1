package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/travelian/internal/circuitbreaker"
)

const breakerService = "ledger"

// Config holds ledger database configuration
type Config struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxLifetime  time.Duration
	Breaker      circuitbreaker.Settings
}

// Client wraps the ledger database behind a circuit breaker
type Client struct {
	db     *sqlx.DB
	cb     *circuitbreaker.CircuitBreaker
	logger *zap.Logger
}

// Open connects to the configured database, verifies the connection and
// creates the ledger tables when missing.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 4
	}
	if cfg.MaxLifetime == 0 {
		cfg.MaxLifetime = 5 * time.Minute
	}

	dbx, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	dbx.SetMaxOpenConns(cfg.MaxOpenConns)
	dbx.SetConnMaxLifetime(cfg.MaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := dbx.PingContext(pingCtx); err != nil {
		dbx.Close()
		return nil, fmt.Errorf("failed to ping ledger database: %w", err)
	}

	client := NewClient(dbx, cfg.Breaker, logger)
	if err := client.Migrate(ctx); err != nil {
		dbx.Close()
		return nil, err
	}

	client.logger.Info("Ledger database initialized",
		zap.String("driver", cfg.Driver),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return client, nil
}

// NewClient wraps an existing connection. It does not migrate.
func NewClient(dbx *sqlx.DB, settings circuitbreaker.Settings, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := circuitbreaker.New("ledger-db", settings, logger)
	circuitbreaker.GlobalMetricsCollector.RegisterCircuitBreaker(breakerService, cb)
	return &Client{db: dbx, cb: cb, logger: logger}
}

// Migrate creates the ledger tables. The DDL is valid for PostgreSQL and SQLite.
func (c *Client) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate ledger schema: %w", err)
		}
	}
	return nil
}

// DB returns the underlying connection
func (c *Client) DB() *sqlx.DB {
	return c.db
}

// PingContext checks connectivity; it satisfies the health Pinger interface.
func (c *Client) PingContext(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection
func (c *Client) Close() error {
	c.logger.Info("Closing ledger database")
	return c.db.Close()
}

// withTx runs fn in a transaction through the breaker.
func (c *Client) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return circuitbreaker.Call(ctx, c.cb, breakerService, func() error {
		tx, err := c.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS plan_runs (
		run_id          TEXT PRIMARY KEY,
		origin          TEXT NOT NULL,
		destination     TEXT NOT NULL,
		duration_days   INTEGER NOT NULL,
		budget_tier     TEXT NOT NULL,
		total_budget    INTEGER NOT NULL,
		sections_ok     INTEGER NOT NULL,
		sections_failed INTEGER NOT NULL,
		synthesis_ok    BOOLEAN NOT NULL,
		status          TEXT NOT NULL,
		duration_ms     BIGINT NOT NULL,
		started_at      TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS plan_sections (
		run_id      TEXT NOT NULL REFERENCES plan_runs(run_id),
		position    INTEGER NOT NULL,
		task_id     TEXT NOT NULL,
		status      TEXT NOT NULL,
		error_kind  TEXT NOT NULL DEFAULT '',
		duration_ms BIGINT NOT NULL,
		PRIMARY KEY (run_id, task_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_plan_runs_started_at ON plan_runs (started_at)`,
}
