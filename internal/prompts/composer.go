package prompts

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Kocoro-lab/travelian/internal/templates"
)

// UserRequestSeparator divides the persona block from the caller's context.
const UserRequestSeparator = "User Request: "

const promptTemplate = `# Role: {{.Role}}
# Goal: {{.Goal}}
# Backstory: {{.Backstory}}
{{- if .Tone}}
# Tone: {{.Tone}}
{{- end}}

Instructions for output:
{{.ExpectedOutput}}

`

var promptTmpl = template.Must(template.New("prompt").Parse(promptTemplate))

type promptData struct {
	Role           string
	Goal           string
	Backstory      string
	Tone           string
	ExpectedOutput string
}

// Compose renders the prompt sent to the model for task. The context text is
// appended after the separator unmodified and is never truncated.
func Compose(task *templates.Task, contextText string) (string, error) {
	if task == nil || task.Persona == nil {
		return "", fmt.Errorf("compose: task has no persona")
	}
	data := promptData{
		Role:           task.Persona.Role,
		Goal:           task.Persona.Goal,
		Backstory:      task.Persona.Backstory,
		Tone:           task.Persona.Tone,
		ExpectedOutput: task.ExpectedOutput,
	}
	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("compose %s: %w", task.ID, err)
	}
	buf.WriteString(UserRequestSeparator)
	buf.WriteString(contextText)
	return buf.String(), nil
}
