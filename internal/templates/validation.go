package templates

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationIssue captures a single validation failure with a stable code for metrics.
type ValidationIssue struct {
	Code    string
	Message string
}

// ValidationError aggregates catalogue validation failures.
type ValidationError struct {
	Issues []ValidationIssue
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "catalog validation failed"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0].Message
	}
	return fmt.Sprintf("%d validation errors: %s", len(e.Issues), strings.Join(e.Messages(), "; "))
}

// HasIssues reports whether any validation problems were captured.
func (e *ValidationError) HasIssues() bool {
	return e != nil && len(e.Issues) > 0
}

// Codes returns the issue codes in order.
func (e *ValidationError) Codes() []string {
	if e == nil {
		return nil
	}
	codes := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		codes[i] = issue.Code
	}
	return codes
}

// Messages returns just the human-readable text for each issue.
func (e *ValidationError) Messages() []string {
	if e == nil {
		return nil
	}
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Message
	}
	return msgs
}

// PersonaLookup resolves persona ids referenced by tasks.
type PersonaLookup interface {
	Has(id string) bool
}

// ValidateCatalog performs structural checks and returns a ValidationError when problems exist.
// personas may be nil, in which case persona references are only checked for presence.
func ValidateCatalog(cat *Catalog, personas PersonaLookup) error {
	if cat == nil {
		return &ValidationError{Issues: []ValidationIssue{{Code: "catalog_nil", Message: "catalog is nil"}}}
	}

	var issues []ValidationIssue
	add := func(code, format string, args ...any) {
		issues = append(issues, ValidationIssue{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(cat.Name) == "" {
		add("catalog_name_missing", "catalog name is required")
	}
	if len(cat.Tasks) == 0 {
		add("catalog_tasks_empty", "at least one task is required")
	}

	tasks := make(map[string]*TaskDef, len(cat.Tasks))
	ordered := make([]string, 0, len(cat.Tasks))
	for i := range cat.Tasks {
		task := &cat.Tasks[i]
		if strings.TrimSpace(task.ID) == "" {
			add("task_id_missing", "task at index %d is missing an id", i)
			continue
		}
		if _, exists := tasks[task.ID]; exists {
			add("task_id_duplicate", "duplicate task id '%s'", task.ID)
			continue
		}
		tasks[task.ID] = task
		ordered = append(ordered, task.ID)
	}

	referenced := make(map[string]struct{})
	for _, id := range ordered {
		task := tasks[id]
		switch {
		case strings.TrimSpace(task.Persona) == "":
			add("persona_missing", "task '%s' has no persona", id)
		case personas != nil && !personas.Has(task.Persona):
			add("persona_unknown", "task '%s' references unknown persona '%s'", id, task.Persona)
		}
		if strings.TrimSpace(task.ExpectedOutput) == "" {
			add("expected_output_missing", "task '%s' has no expected_output", id)
		}
		depSet := make(map[string]struct{}, len(task.DependsOn))
		for _, dep := range task.DependsOn {
			if dep == id {
				add("dependency_self", "task '%s' cannot depend on itself", id)
				continue
			}
			if _, ok := tasks[dep]; !ok {
				add("dependency_unknown", "task '%s' depends on unknown task '%s'", id, dep)
				continue
			}
			if _, dup := depSet[dep]; dup {
				add("dependency_duplicate", "task '%s' lists dependency '%s' more than once", id, dep)
				continue
			}
			depSet[dep] = struct{}{}
			referenced[dep] = struct{}{}
		}
	}

	for dep := range referenced {
		if strings.TrimSpace(tasks[dep].SectionLabel) == "" {
			add("section_label_missing", "task '%s' feeds downstream tasks but has no section_label", dep)
		}
	}

	if cat.Synthesis == "" {
		add("synthesis_missing", "catalog must name a synthesis task")
	} else if synth, ok := tasks[cat.Synthesis]; !ok {
		add("synthesis_unknown", "synthesis task '%s' is not defined", cat.Synthesis)
	} else {
		if len(synth.DependsOn) == 0 {
			add("synthesis_no_dependencies", "synthesis task '%s' must declare depends_on", cat.Synthesis)
		}
		if _, ok := referenced[cat.Synthesis]; ok {
			add("synthesis_has_dependents", "synthesis task '%s' cannot be a dependency", cat.Synthesis)
		}
	}

	if cat.Chat != "" {
		if chat, ok := tasks[cat.Chat]; !ok {
			add("chat_unknown", "chat task '%s' is not defined", cat.Chat)
		} else if len(chat.DependsOn) > 0 {
			add("chat_has_dependencies", "chat task '%s' must be standalone", cat.Chat)
		}
		if cat.Chat == cat.Synthesis {
			add("chat_is_synthesis", "chat and synthesis must be different tasks")
		}
	}

	adjacency := make(map[string][]string, len(tasks))
	for _, id := range ordered {
		for _, dep := range tasks[id].DependsOn {
			if _, ok := tasks[dep]; ok && dep != id {
				adjacency[dep] = append(adjacency[dep], id)
			}
		}
	}
	if cycle := findCycle(ordered, adjacency); cycle != "" {
		add("graph_cycle", "cycle detected: %s", cycle)
	}

	if len(issues) > 0 {
		sort.SliceStable(issues, func(i, j int) bool {
			if issues[i].Code == issues[j].Code {
				return issues[i].Message < issues[j].Message
			}
			return issues[i].Code < issues[j].Code
		})
		return &ValidationError{Issues: issues}
	}
	return nil
}

func findCycle(ordered []string, adjacency map[string][]string) string {
	const (
		stateUnvisited = 0
		stateVisiting  = 1
		stateVisited   = 2
	)

	state := make(map[string]int, len(ordered))
	stack := make([]string, 0, len(ordered))
	var cycle string

	var dfs func(string) bool
	dfs = func(node string) bool {
		state[node] = stateVisiting
		stack = append(stack, node)

		for _, next := range adjacency[node] {
			switch state[next] {
			case stateVisiting:
				cycle = formatCycle(stack, next)
				return true
			case stateUnvisited:
				if dfs(next) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[node] = stateVisited
		return false
	}

	for _, node := range ordered {
		if state[node] == stateUnvisited {
			if dfs(node) {
				return cycle
			}
		}
	}
	return ""
}

func formatCycle(stack []string, start string) string {
	idx := -1
	for i, n := range stack {
		if n == start {
			idx = i
			break
		}
	}
	if idx == -1 {
		return strings.Join(append(stack, start), " → ")
	}
	cycle := append([]string(nil), stack[idx:]...)
	cycle = append(cycle, start)
	return strings.Join(cycle, " → ")
}
