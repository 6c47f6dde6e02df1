package templates

import (
	"strings"
)

// Catalog is the raw task catalogue as declared in YAML.
type Catalog struct {
	Name      string    `yaml:"name"`
	Version   string    `yaml:"version"`
	Synthesis string    `yaml:"synthesis"`
	Chat      string    `yaml:"chat"`
	Tasks     []TaskDef `yaml:"tasks"`
}

// TaskDef declares one unit of work bound to a persona.
type TaskDef struct {
	ID             string   `yaml:"id"`
	Persona        string   `yaml:"persona"`
	SectionLabel   string   `yaml:"section_label"`
	DependsOn      []string `yaml:"depends_on"`
	Description    string   `yaml:"description"`
	ExpectedOutput string   `yaml:"expected_output"`
}

// TaskByID returns a pointer to the task with the supplied ID, if present.
func (c *Catalog) TaskByID(id string) *TaskDef {
	for i := range c.Tasks {
		if c.Tasks[i].ID == id {
			return &c.Tasks[i]
		}
	}
	return nil
}

// Placeholders substituted into task descriptions.
type Placeholders struct {
	Origin      string
	Destination string
	Preferences string
	Budget      string
	Duration    string
}

// Render substitutes {origin}, {destination}, {preferences}, {budget} and
// {duration} in s. Unknown braces are left untouched.
func (p Placeholders) Render(s string) string {
	return strings.NewReplacer(
		"{origin}", p.Origin,
		"{destination}", p.Destination,
		"{preferences}", p.Preferences,
		"{budget}", p.Budget,
		"{duration}", p.Duration,
	).Replace(s)
}
