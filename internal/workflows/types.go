package workflows

import (
	"fmt"
	"strings"
	"time"

	"github.com/Kocoro-lab/travelian/internal/budget"
	"github.com/Kocoro-lab/travelian/internal/models"
	"github.com/Kocoro-lab/travelian/internal/prompts"
)

// DateLayout is the accepted travel date format.
const DateLayout = "2006-01-02"

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TravelRequest is a trip to plan.
type TravelRequest struct {
	Origin              string
	Destination         string
	StartDate           string
	EndDate             string
	Duration            int
	BudgetTier          string
	TravelStyle         string
	Interests           []string
	SpecialRequirements string
}

// ValidationError lists every problem found in a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid travel request: " + strings.Join(e.Problems, "; ")
}

// Validate checks the request before it is handed to the orchestrator.
func (r TravelRequest) Validate() error {
	var problems []string
	if strings.TrimSpace(r.Origin) == "" {
		problems = append(problems, "origin is required")
	}
	if strings.TrimSpace(r.Destination) == "" {
		problems = append(problems, "destination is required")
	}
	if strings.TrimSpace(r.BudgetTier) == "" {
		problems = append(problems, "budget is required")
	}
	if r.Duration < 1 {
		problems = append(problems, "duration must be at least 1 day")
	}

	var start, end time.Time
	var err error
	if r.StartDate != "" {
		if start, err = time.Parse(DateLayout, r.StartDate); err != nil {
			problems = append(problems, fmt.Sprintf("startDate %q is not YYYY-MM-DD", r.StartDate))
		}
	}
	if r.EndDate != "" {
		if end, err = time.Parse(DateLayout, r.EndDate); err != nil {
			problems = append(problems, fmt.Sprintf("endDate %q is not YYYY-MM-DD", r.EndDate))
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		problems = append(problems, "endDate is before startDate")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (r TravelRequest) trip() prompts.Trip {
	return prompts.Trip{
		Origin:              r.Origin,
		Destination:         r.Destination,
		StartDate:           r.StartDate,
		EndDate:             r.EndDate,
		Duration:            r.Duration,
		BudgetTier:          r.BudgetTier,
		TravelStyle:         r.TravelStyle,
		Interests:           r.Interests,
		SpecialRequirements: r.SpecialRequirements,
	}
}

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SectionResult is the outcome of one task in a run. Output always holds
// displayable text: the model response or the failure message.
type SectionResult struct {
	TaskID   string
	Label    string
	Output   string
	Failure  *models.GatewayError
	Duration time.Duration
}

// Failed reports whether the section holds a failure message.
func (s SectionResult) Failed() bool {
	return s.Failure != nil
}

// ErrorKind returns the failure kind or "" on success.
func (s SectionResult) ErrorKind() string {
	if s.Failure == nil {
		return ""
	}
	return string(s.Failure.Kind)
}

// PlanResult is the outcome of a full plan run.
type PlanResult struct {
	RunID     string
	Itinerary string
	Budget    budget.Breakdown
	Sections  []SectionResult
	Synthesis SectionResult
	StartedAt time.Time
	Duration  time.Duration
}

// SynthesisFailed reports whether the itinerary text is a failure message.
func (p *PlanResult) SynthesisFailed() bool {
	return p.Synthesis.Failed()
}

// FailedSections counts stage sections that failed.
func (p *PlanResult) FailedSections() int {
	n := 0
	for _, s := range p.Sections {
		if s.Failed() {
			n++
		}
	}
	return n
}

// Status summarizes the run as ok, partial or failed.
func (p *PlanResult) Status() string {
	switch {
	case p.SynthesisFailed():
		return "failed"
	case p.FailedSections() > 0:
		return "partial"
	default:
		return "ok"
	}
}

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	Response string
	History  []Message
	Failure  *models.GatewayError
}
