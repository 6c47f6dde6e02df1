package personas

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/personas.yaml
var catalogFS embed.FS

const defaultCatalog = "catalog/personas.yaml"

// LoadConfig reads a persona catalogue from disk.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError(path, "", "", err)
	}
	return ParseConfig(path, data)
}

// LoadDefaultConfig returns the catalogue compiled into the binary.
func LoadDefaultConfig() (*Config, error) {
	data, err := catalogFS.ReadFile(defaultCatalog)
	if err != nil {
		return nil, NewConfigError(defaultCatalog, "", "", err)
	}
	return ParseConfig(defaultCatalog, data)
}

// ParseConfig decodes and validates a catalogue. Unknown fields are rejected.
func ParseConfig(source string, data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, NewConfigError(source, "", "", fmt.Errorf("decode: %w", err))
	}
	for id, p := range cfg.Personas {
		if p != nil {
			p.ID = id
		}
	}
	if err := cfg.Validate(source); err != nil {
		return nil, err
	}
	cfg.normalize()
	return &cfg, nil
}

// Validate checks that every persona carries the fields a prompt needs.
func (c *Config) Validate(source string) error {
	if len(c.Personas) == 0 {
		return NewConfigError(source, "", "", errors.New("no personas defined"))
	}
	for id, p := range c.Personas {
		if strings.TrimSpace(id) == "" {
			return NewConfigError(source, id, "id", ErrConfigInvalid)
		}
		if p == nil {
			return NewConfigError(source, id, "", fmt.Errorf("%w: empty definition", ErrConfigInvalid))
		}
		if strings.TrimSpace(p.Role) == "" {
			return NewConfigError(source, id, "role", fmt.Errorf("%w: role is required", ErrConfigInvalid))
		}
		if strings.TrimSpace(p.Goal) == "" {
			return NewConfigError(source, id, "goal", fmt.Errorf("%w: goal is required", ErrConfigInvalid))
		}
		if strings.TrimSpace(p.Backstory) == "" {
			return NewConfigError(source, id, "backstory", fmt.Errorf("%w: backstory is required", ErrConfigInvalid))
		}
	}
	return nil
}

func (c *Config) normalize() {
	for _, p := range c.Personas {
		p.Role = strings.TrimSpace(p.Role)
		p.Goal = strings.TrimSpace(p.Goal)
		p.Backstory = strings.TrimSpace(p.Backstory)
		p.Tone = strings.TrimSpace(p.Tone)
	}
}
