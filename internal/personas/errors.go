package personas

import (
	"errors"
	"fmt"
)

var (
	ErrPersonaNotFound = errors.New("persona not found")
	ErrConfigInvalid   = errors.New("invalid persona configuration")
)

// ConfigError represents a configuration-related error
type ConfigError struct {
	Source  string
	Persona string
	Field   string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Persona == "" {
		return fmt.Sprintf("persona config error in %s: %v", e.Source, e.Cause)
	}
	return fmt.Sprintf("persona config error in %s[%s].%s: %v", e.Source, e.Persona, e.Field, e.Cause)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new configuration error
func NewConfigError(source, persona, field string, cause error) *ConfigError {
	return &ConfigError{
		Source:  source,
		Persona: persona,
		Field:   field,
		Cause:   cause,
	}
}
