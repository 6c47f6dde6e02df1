package workflows

import (
	"fmt"

	"github.com/Kocoro-lab/travelian/internal/budget"
	"github.com/Kocoro-lab/travelian/internal/prompts"
	"github.com/Kocoro-lab/travelian/internal/templates"
)

// runContext accumulates the state of a single plan run. It is owned by the
// goroutine executing the run and never shared.
type runContext struct {
	RunID   string
	Request TravelRequest
	Budget  budget.Breakdown
	Seed    string

	results map[string]SectionResult
	order   []string
}

func newRunContext(runID string, req TravelRequest) *runContext {
	b := budget.Compute(req.BudgetTier, req.Duration)
	return &runContext{
		RunID:   runID,
		Request: req,
		Budget:  b,
		Seed:    prompts.SeedContext(req.trip(), b),
		results: make(map[string]SectionResult),
	}
}

// Record stores the result of a task keyed by its id.
func (rc *runContext) Record(result SectionResult) {
	if _, seen := rc.results[result.TaskID]; !seen {
		rc.order = append(rc.order, result.TaskID)
	}
	rc.results[result.TaskID] = result
}

// Result returns the recorded result of taskID.
func (rc *runContext) Result(taskID string) (SectionResult, bool) {
	r, ok := rc.results[taskID]
	return r, ok
}

// Sections returns recorded results in execution order.
func (rc *runContext) Sections() []SectionResult {
	out := make([]SectionResult, 0, len(rc.order))
	for _, id := range rc.order {
		out = append(out, rc.results[id])
	}
	return out
}

// ContextFor builds the context text for task: the seed, the budget details
// when the task references the budget, then each dependency's labeled output
// in the order the task declares them.
func (rc *runContext) ContextFor(task *templates.Task) (string, error) {
	text := rc.Seed
	if task.UsesBudget() {
		text += prompts.BudgetDetails(rc.Request.trip(), rc.Budget)
	}
	if len(task.DependsOn) == 0 {
		return text, nil
	}

	sections := make([]prompts.Section, 0, len(task.DependsOn))
	for _, dep := range task.DependsOn {
		r, ok := rc.results[dep]
		if !ok {
			return "", fmt.Errorf("task %s: dependency %s has no result", task.ID, dep)
		}
		sections = append(sections, prompts.Section{Label: r.Label, Text: r.Output})
	}
	return prompts.SynthesisContext(text, sections), nil
}
