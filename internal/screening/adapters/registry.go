package adapters

import (
	"fmt"

	"vigil/internal/screening/models"
	"vigil/internal/screening/ports"
)

// Registry holds the configured sources in their registration order, which
// doubles as the default consultation order.
type Registry struct {
	sources map[models.SourceTag]ports.Source
	order   []models.SourceTag
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[models.SourceTag]ports.Source)}
}

// Register adds a source. Each tag can be registered once.
func (r *Registry) Register(s ports.Source) error {
	tag := s.Tag()
	if _, exists := r.sources[tag]; exists {
		return fmt.Errorf("source %s already registered", tag)
	}
	r.sources[tag] = s
	r.order = append(r.order, tag)
	return nil
}

// Get retrieves a source by tag.
func (r *Registry) Get(tag models.SourceTag) (ports.Source, bool) {
	s, ok := r.sources[tag]
	return s, ok
}

// Enabled returns the registered sources that participate under the given
// configuration, in registration order.
func (r *Registry) Enabled(cfg models.SearchConfig) []ports.Source {
	var result []ports.Source
	for _, tag := range r.order {
		if cfg.SourceEnabled(tag) {
			result = append(result, r.sources[tag])
		}
	}
	return result
}

// All returns every registered source in registration order.
func (r *Registry) All() []ports.Source {
	result := make([]ports.Source, 0, len(r.order))
	for _, tag := range r.order {
		result = append(result, r.sources[tag])
	}
	return result
}
