package personas

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLoadDefault(t *testing.T) {
	reg, err := LoadDefault(zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"accommodation_finder",
		"activities_curator",
		"conversational_assistant",
		"destination_researcher",
		"dining_recommender",
		"itinerary_integrator",
		"transportation_planner",
	}, reg.IDs())

	p, err := reg.Get("itinerary_integrator")
	require.NoError(t, err)
	assert.Equal(t, "itinerary_integrator", p.ID)
	assert.Equal(t, "Itinerary Integration Agent", p.Role)
	assert.Contains(t, p.Goal, "day-by-day itinerary")
	assert.NotEmpty(t, p.Backstory)
	assert.Equal(t, "Organized, balanced, and practical.", p.Tone)
}

func TestRegistryGetUnknown(t *testing.T) {
	reg, err := LoadDefault(nil)
	require.NoError(t, err)

	_, err = reg.Get("tour_guide")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersonaNotFound))
	assert.False(t, reg.Has("tour_guide"))
	assert.True(t, reg.Has("dining_recommender"))
}

func TestRegistryIsolatedFromConfig(t *testing.T) {
	cfg, err := ParseConfig("inline", []byte(`
personas:
  guide:
    role: Guide
    goal: Guide people
    backstory: Has guided before
`))
	require.NoError(t, err)

	reg := NewRegistry(cfg, nil)
	cfg.Personas["guide"].Role = "Changed"

	p, err := reg.Get("guide")
	require.NoError(t, err)
	assert.Equal(t, "Guide", p.Role)
	assert.Empty(t, p.Tone)
	assert.Len(t, reg.List(), 1)
}

func TestParseConfigValidation(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{
			name:  "missing role",
			yaml:  "personas:\n  a:\n    goal: g\n    backstory: b\n",
			field: "role",
		},
		{
			name:  "missing goal",
			yaml:  "personas:\n  a:\n    role: r\n    backstory: b\n",
			field: "goal",
		},
		{
			name:  "missing backstory",
			yaml:  "personas:\n  a:\n    role: r\n    goal: g\n",
			field: "backstory",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig("inline", []byte(tt.yaml))
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, "a", cfgErr.Persona)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.True(t, errors.Is(err, ErrConfigInvalid))
		})
	}
}

func TestParseConfigRejectsUnknownFields(t *testing.T) {
	_, err := ParseConfig("inline", []byte("personas:\n  a:\n    role: r\n    goal: g\n    backstory: b\n    mood: sunny\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mood")
}

func TestParseConfigEmpty(t *testing.T) {
	_, err := ParseConfig("inline", []byte("personas: {}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no personas defined")
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("personas:\n  a:\n    role: \" r \"\n    goal: g\n    backstory: b\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "r", cfg.Personas["a"].Role)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}
