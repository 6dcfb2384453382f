package service

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"pulmoscan/internal/backend"
	"pulmoscan/internal/imaging"
	"pulmoscan/internal/model"
)

// PredictionService composes the cascade, the score normalizer, the
// clinical catalog and the offline fallback into the triage operation.
// Once input validation passes it always produces a Diagnosis: total
// backend failure degrades quality instead of failing the request.
type PredictionService struct {
	registry *backend.Registry
	cascade  *Cascade
	catalog  *model.ClinicalCatalog
	fallback *Fallback

	// lastMode holds the serving mode of the most recent Predict call.
	lastMode atomic.Value // model.BackendMode
}

// NewPredictionService wires the service. fallback may be nil, in
// which case total backend failure surfaces ErrNoModelLoaded instead
// of a degraded Diagnosis.
func NewPredictionService(registry *backend.Registry, catalog *model.ClinicalCatalog, fallback *Fallback) *PredictionService {
	s := &PredictionService{
		registry: registry,
		cascade:  NewCascade(registry),
		catalog:  catalog,
		fallback: fallback,
	}
	if registry.Empty() {
		s.lastMode.Store(model.ModeDegraded)
	} else {
		s.lastMode.Store(registry.Backends()[0].Mode())
	}
	return s
}

// Predict runs the triage pipeline on a raw image upload.
func (s *PredictionService) Predict(ctx context.Context, imageBytes []byte) (*model.Diagnosis, error) {
	if len(imageBytes) == 0 {
		return nil, fmt.Errorf("%w: empty upload", model.ErrInvalidInput)
	}
	if _, err := imaging.Decode(imageBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	if s.registry.Empty() && s.fallback == nil {
		return nil, model.ErrNoModelLoaded
	}

	scores, b, err := s.cascade.Classify(ctx, imageBytes)
	if err != nil {
		if s.fallback == nil {
			return nil, model.ErrNoModelLoaded
		}
		log.Printf("[predict] %v, serving degraded result", err)
		s.lastMode.Store(model.ModeDegraded)
		return s.fallback.Diagnose(imageBytes), nil
	}

	var dist model.Distribution
	if b.TwoClass() {
		dist = NormalizeTwoClass(scores)
	} else {
		dist = NormalizeMultiClass(scores)
	}

	s.lastMode.Store(b.Mode())

	predicted := dist.ArgMax()
	info := s.catalog.Lookup(predicted)
	return &model.Diagnosis{
		PredictedClass:  predicted,
		Confidence:      dist[predicted],
		Severity:        info.Severity,
		Probabilities:   dist,
		AffectedRegions: info.AffectedRegions,
		Recommendations: info.Recommendations,
		DemoMode:        false,
	}, nil
}

// HealthStatus reports the serving mode of the most recent Predict
// call, or the highest-priority configured backend before any call.
func (s *PredictionService) HealthStatus() model.HealthStatus {
	return model.HealthStatus{
		Available: !s.registry.Empty(),
		Mode:      s.lastMode.Load().(model.BackendMode),
		Classes:   model.Classes,
	}
}
