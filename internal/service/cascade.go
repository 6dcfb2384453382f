package service

import (
	"context"
	"fmt"
	"log"

	"pulmoscan/internal/backend"
	"pulmoscan/internal/model"
)

// Cascade tries backends in priority order and returns the first
// success. A backend failure is logged and swallowed; it never aborts
// the request. The cascade never fabricates scores: if every backend
// fails it reports ErrAllBackendsFailed and leaves the fallback to the
// caller.
type Cascade struct {
	registry *backend.Registry
}

// NewCascade creates a cascade over the startup-time backend registry.
func NewCascade(registry *backend.Registry) *Cascade {
	return &Cascade{registry: registry}
}

// Classify attempts each backend at most once and returns the raw
// scores together with the backend that produced them.
func (c *Cascade) Classify(ctx context.Context, imageBytes []byte) ([]model.RawScore, backend.Backend, error) {
	for _, b := range c.registry.Backends() {
		scores, err := b.Classify(ctx, imageBytes)
		if err != nil {
			log.Printf("[cascade] backend %s unavailable: %v", b.Name(), err)
			continue
		}
		return scores, b, nil
	}
	return nil, nil, fmt.Errorf("%w: %d backends attempted", model.ErrAllBackendsFailed, len(c.registry.Backends()))
}
