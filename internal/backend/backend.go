package backend

import (
	"context"

	"pulmoscan/internal/model"
)

// Backend turns raw image bytes into per-label scores. Implementations
// report either the native 3-class vocabulary or the two-class
// {NORMAL, PNEUMONIA} vocabulary; TwoClass tells the caller which.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Mode is the serving mode reported by the health endpoint when
	// this backend produced the most recent result.
	Mode() model.BackendMode

	// TwoClass reports whether Classify emits the two-class vocabulary
	// that needs remapping onto the clinical taxonomy.
	TwoClass() bool

	// Classify runs inference. Any error means the backend is
	// unavailable for this request; the cascade falls through.
	Classify(ctx context.Context, imageBytes []byte) ([]model.RawScore, error)
}

// Registry is the ordered, fixed backend list decided once at startup.
type Registry struct {
	backends []Backend
}

// NewRegistry builds a registry from backends in priority order.
func NewRegistry(backends ...Backend) *Registry {
	return &Registry{backends: backends}
}

// Add appends a backend at the lowest priority.
func (r *Registry) Add(b Backend) {
	r.backends = append(r.backends, b)
}

// Backends returns the priority-ordered list.
func (r *Registry) Backends() []Backend {
	return r.backends
}

// Empty reports whether no backend is configured.
func (r *Registry) Empty() bool {
	return len(r.backends) == 0
}
