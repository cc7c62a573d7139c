package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/Eman-Sallam/ai-pipeline-editor/observability"
)

// Canonical stage type names.
const (
	DataSource  = "Data Source"
	Transformer = "Transformer"
	Model       = "Model"
	Sink        = "Sink"
)

// StageType is one entry of the catalog as served on /api/nodes.
type StageType struct {
	ID   string `json:"id" yaml:"id" validate:"required"`
	Name string `json:"name" yaml:"name" validate:"required"`
}

// DefaultStageTypes returns the four canonical stage types.
func DefaultStageTypes() []StageType {
	return []StageType{
		{ID: "1", Name: DataSource},
		{ID: "2", Name: Transformer},
		{ID: "3", Name: Model},
		{ID: "4", Name: Sink},
	}
}

// Store holds the stage types a catalog service serves.
type Store struct {
	mu    sync.RWMutex
	types []StageType
}

// NewStore creates a store seeded with types, or the defaults when none are given.
func NewStore(types ...StageType) *Store {
	if len(types) == 0 {
		types = DefaultStageTypes()
	}
	s := &Store{}
	s.Replace(types)
	return s
}

// List returns a copy of the stored stage types.
func (s *Store) List() []StageType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StageType, len(s.types))
	copy(out, s.types)
	return out
}

// Get returns the stage type with the given id.
func (s *Store) Get(id string) (StageType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.types {
		if t.ID == id {
			return t, true
		}
	}
	return StageType{}, false
}

// Replace swaps the stored stage types.
func (s *Store) Replace(types []StageType) {
	cp := make([]StageType, len(types))
	copy(cp, types)
	s.mu.Lock()
	s.types = cp
	s.mu.Unlock()
}

// CheckHealth reports the store as degraded when it has nothing to serve.
func (s *Store) CheckHealth(_ context.Context) observability.Health {
	n := len(s.List())
	h := observability.Health{
		Name:    "catalog",
		Status:  observability.HealthStatusUp,
		Details: map[string]string{"stage_types": fmt.Sprint(n)},
	}
	if n == 0 {
		h.Status = observability.HealthStatusDegraded
		h.Message = "catalog is empty"
	}
	return h
}
