package templates

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Kocoro-lab/travelian/internal/personas"
)

// ErrTaskNotFound is returned when a plan is asked for a task it does not contain.
var ErrTaskNotFound = errors.New("task not found")

// PersonaSource resolves persona ids to their definitions.
type PersonaSource interface {
	PersonaLookup
	Get(id string) (*personas.Persona, error)
}

// Task is a compiled, immutable unit of work with its persona bound.
type Task struct {
	ID             string
	Persona        *personas.Persona
	SectionLabel   string
	Description    string
	ExpectedOutput string
	DependsOn      []string
}

// UsesBudget reports whether the task description references the budget,
// in which case its prompt carries the detailed budget lines.
func (t *Task) UsesBudget() bool {
	return strings.Contains(t.Description, "budget")
}

// Plan is a deterministic, read-only representation of a catalogue.
type Plan struct {
	Name      string
	Version   string
	Synthesis string
	Chat      string
	// Order lists every task so that dependencies come first. Ties keep
	// declaration order.
	Order []string

	tasks map[string]*Task
}

// Compile validates cat against personas and binds every task to its persona.
func Compile(cat *Catalog, source PersonaSource) (*Plan, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is nil")
	}
	if source == nil {
		return nil, fmt.Errorf("persona source is nil")
	}
	if err := ValidateCatalog(cat, source); err != nil {
		return nil, err
	}

	plan := &Plan{
		Name:      cat.Name,
		Version:   cat.Version,
		Synthesis: cat.Synthesis,
		Chat:      cat.Chat,
		tasks:     make(map[string]*Task, len(cat.Tasks)),
	}

	declared := make([]string, 0, len(cat.Tasks))
	for _, def := range cat.Tasks {
		p, err := source.Get(def.Persona)
		if err != nil {
			return nil, fmt.Errorf("bind persona for task %s: %w", def.ID, err)
		}
		plan.tasks[def.ID] = &Task{
			ID:             def.ID,
			Persona:        p,
			SectionLabel:   strings.TrimSpace(def.SectionLabel),
			Description:    def.Description,
			ExpectedOutput: def.ExpectedOutput,
			DependsOn:      slices.Clone(def.DependsOn),
		}
		declared = append(declared, def.ID)
	}

	order, err := topologicalOrder(declared, plan.tasks)
	if err != nil {
		return nil, err
	}
	plan.Order = order
	return plan, nil
}

// Task returns the compiled task with the given id.
func (p *Plan) Task(id string) (*Task, error) {
	t, ok := p.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return t, nil
}

// Stages returns the tasks executed before synthesis, in execution order.
// The chat task is never part of a plan run.
func (p *Plan) Stages() []*Task {
	out := make([]*Task, 0, len(p.Order))
	for _, id := range p.Order {
		if id == p.Synthesis || id == p.Chat {
			continue
		}
		out = append(out, p.tasks[id])
	}
	return out
}

// SynthesisTask returns the task that merges all stage outputs.
func (p *Plan) SynthesisTask() (*Task, error) {
	return p.Task(p.Synthesis)
}

// ChatTask returns the standalone conversational task.
func (p *Plan) ChatTask() (*Task, error) {
	if p.Chat == "" {
		return nil, fmt.Errorf("%w: catalog %s declares no chat task", ErrTaskNotFound, p.Name)
	}
	return p.Task(p.Chat)
}

// topologicalOrder is Kahn's algorithm where the ready set is always drained
// in declaration order, so independent tasks keep the order they were written in.
func topologicalOrder(declared []string, tasks map[string]*Task) ([]string, error) {
	position := make(map[string]int, len(declared))
	for i, id := range declared {
		position[id] = i
	}

	indegree := make(map[string]int, len(declared))
	dependents := make(map[string][]string, len(declared))
	for _, id := range declared {
		for _, dep := range tasks[id].DependsOn {
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	ready := make([]string, 0, len(declared))
	for _, id := range declared {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]string, 0, len(declared))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		order = append(order, current)

		for _, next := range dependents[current] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
		slices.SortFunc(ready, func(a, b string) int { return position[a] - position[b] })
	}

	if len(order) != len(declared) {
		return nil, fmt.Errorf("cycle detected in task graph")
	}
	return order, nil
}
