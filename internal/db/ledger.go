package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	ometrics "github.com/Kocoro-lab/travelian/internal/metrics"
	"github.com/Kocoro-lab/travelian/internal/workflows"
)

const (
	insertRun = `INSERT INTO plan_runs (
		run_id, origin, destination, duration_days, budget_tier, total_budget,
		sections_ok, sections_failed, synthesis_ok, status, duration_ms, started_at
	) VALUES (
		:run_id, :origin, :destination, :duration_days, :budget_tier, :total_budget,
		:sections_ok, :sections_failed, :synthesis_ok, :status, :duration_ms, :started_at
	)`

	insertSection = `INSERT INTO plan_sections (
		run_id, position, task_id, status, error_kind, duration_ms
	) VALUES (
		:run_id, :position, :task_id, :status, :error_kind, :duration_ms
	)`

	selectRecentRuns = `SELECT run_id, origin, destination, duration_days, budget_tier, total_budget,
		sections_ok, sections_failed, synthesis_ok, status, duration_ms, started_at
	FROM plan_runs ORDER BY started_at DESC LIMIT ?`

	selectSections = `SELECT run_id, position, task_id, status, error_kind, duration_ms
	FROM plan_sections WHERE run_id = ? ORDER BY position`
)

// Ledger records plan run metadata. It implements workflows.RunRecorder.
type Ledger struct {
	client *Client
	logger *zap.Logger
}

var _ workflows.RunRecorder = (*Ledger)(nil)

// NewLedger creates a ledger on client
func NewLedger(client *Client, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{client: client, logger: logger}
}

// RecordPlanRun writes the run row and one row per executed task in a single transaction.
func (l *Ledger) RecordPlanRun(ctx context.Context, req workflows.TravelRequest, result *workflows.PlanResult) error {
	run, sections := RowsFromResult(req, result)

	err := l.client.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, insertRun, run); err != nil {
			return fmt.Errorf("failed to save plan run: %w", err)
		}
		for _, s := range sections {
			if _, err := tx.NamedExecContext(ctx, insertSection, s); err != nil {
				return fmt.Errorf("failed to save plan section %s: %w", s.TaskID, err)
			}
		}
		return nil
	})
	if err != nil {
		ometrics.LedgerWrites.WithLabelValues("error").Inc()
		return err
	}

	ometrics.LedgerWrites.WithLabelValues("ok").Inc()
	l.logger.Debug("Plan run recorded",
		zap.String("run_id", run.RunID),
		zap.String("status", run.Status),
		zap.Int("sections", len(sections)),
	)
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (l *Ledger) RecentRuns(ctx context.Context, limit int) ([]PlanRun, error) {
	if limit <= 0 {
		limit = 20
	}
	db := l.client.DB()
	var runs []PlanRun
	if err := db.SelectContext(ctx, &runs, db.Rebind(selectRecentRuns), limit); err != nil {
		return nil, fmt.Errorf("failed to list plan runs: %w", err)
	}
	return runs, nil
}

// Sections returns the section rows of a run in execution order.
func (l *Ledger) Sections(ctx context.Context, runID string) ([]PlanSection, error) {
	db := l.client.DB()
	var sections []PlanSection
	if err := db.SelectContext(ctx, &sections, db.Rebind(selectSections), runID); err != nil {
		return nil, fmt.Errorf("failed to list plan sections: %w", err)
	}
	return sections, nil
}

// RowsFromResult flattens a plan result into ledger rows. The synthesis
// task is the last section row.
func RowsFromResult(req workflows.TravelRequest, result *workflows.PlanResult) (PlanRun, []PlanSection) {
	failed := result.FailedSections()
	run := PlanRun{
		RunID:          result.RunID,
		Origin:         req.Origin,
		Destination:    req.Destination,
		DurationDays:   req.Duration,
		BudgetTier:     req.BudgetTier,
		TotalBudget:    result.Budget.Total,
		SectionsOK:     len(result.Sections) - failed,
		SectionsFailed: failed,
		SynthesisOK:    !result.SynthesisFailed(),
		Status:         result.Status(),
		DurationMs:     result.Duration.Milliseconds(),
		StartedAt:      result.StartedAt.UTC(),
	}

	all := append(append([]workflows.SectionResult{}, result.Sections...), result.Synthesis)
	sections := make([]PlanSection, 0, len(all))
	for i, s := range all {
		status := "ok"
		if s.Failed() {
			status = "failed"
		}
		sections = append(sections, PlanSection{
			RunID:      result.RunID,
			Position:   i,
			TaskID:     s.TaskID,
			Status:     status,
			ErrorKind:  s.ErrorKind(),
			DurationMs: s.Duration.Milliseconds(),
		})
	}
	return run, sections
}
