package personas

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Registry is a read-only lookup of personas by id. It is built once at
// startup and safe for concurrent use without locking.
type Registry struct {
	personas map[string]*Persona
	ids      []string
}

// NewRegistry builds a registry from a validated config.
func NewRegistry(cfg *Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	ids := lo.Keys(cfg.Personas)
	sort.Strings(ids)

	r := &Registry{
		personas: make(map[string]*Persona, len(cfg.Personas)),
		ids:      ids,
	}
	for id, p := range cfg.Personas {
		cp := *p
		r.personas[id] = &cp
	}
	logger.Info("Persona registry loaded", zap.Int("personas", len(ids)), zap.Strings("ids", ids))
	return r
}

// LoadDefault builds the registry from the embedded catalogue.
func LoadDefault(logger *zap.Logger) (*Registry, error) {
	cfg, err := LoadDefaultConfig()
	if err != nil {
		return nil, err
	}
	return NewRegistry(cfg, logger), nil
}

// Get returns the persona with the given id.
func (r *Registry) Get(id string) (*Persona, error) {
	p, ok := r.personas[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPersonaNotFound, id)
	}
	return p, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.personas[id]
	return ok
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// List returns all personas sorted by id.
func (r *Registry) List() []*Persona {
	return lo.Map(r.ids, func(id string, _ int) *Persona { return r.personas[id] })
}
