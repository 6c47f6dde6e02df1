package db

import "time"

// PlanRun is one row of plan_runs. Generated text is never stored.
type PlanRun struct {
	RunID          string    `db:"run_id" json:"run_id"`
	Origin         string    `db:"origin" json:"origin"`
	Destination    string    `db:"destination" json:"destination"`
	DurationDays   int       `db:"duration_days" json:"duration_days"`
	BudgetTier     string    `db:"budget_tier" json:"budget_tier"`
	TotalBudget    int       `db:"total_budget" json:"total_budget"`
	SectionsOK     int       `db:"sections_ok" json:"sections_ok"`
	SectionsFailed int       `db:"sections_failed" json:"sections_failed"`
	SynthesisOK    bool      `db:"synthesis_ok" json:"synthesis_ok"`
	Status         string    `db:"status" json:"status"`
	DurationMs     int64     `db:"duration_ms" json:"duration_ms"`
	StartedAt      time.Time `db:"started_at" json:"started_at"`
}

// PlanSection is one row of plan_sections.
type PlanSection struct {
	RunID      string `db:"run_id" json:"-"`
	Position   int    `db:"position" json:"position"`
	TaskID     string `db:"task_id" json:"task_id"`
	Status     string `db:"status" json:"status"`
	ErrorKind  string `db:"error_kind" json:"error_kind,omitempty"`
	DurationMs int64  `db:"duration_ms" json:"duration_ms"`
}
