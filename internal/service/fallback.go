package service

import (
	"hash/fnv"

	"pulmoscan/internal/model"
)

// fallbackPrefixLen bounds how much of the upload feeds the hash, so
// large files cost the same as small ones.
const fallbackPrefixLen = 512

// Fallback produces a deterministic pseudo-prediction when every
// backend is down. Same input bytes always yield the same Diagnosis.
// It never fails; it is the guaranteed terminal answer.
type Fallback struct {
	catalog *model.ClinicalCatalog
}

// NewFallback creates the offline fallback.
func NewFallback(catalog *model.ClinicalCatalog) *Fallback {
	return &Fallback{catalog: catalog}
}

// Diagnose derives a class and confidence from a hash of the input
// prefix and builds a fully-formed, degraded Diagnosis around them.
func (f *Fallback) Diagnose(imageBytes []byte) *model.Diagnosis {
	prefix := imageBytes
	if len(prefix) > fallbackPrefixLen {
		prefix = prefix[:fallbackPrefixLen]
	}

	h := fnv.New32a()
	h.Write(prefix)
	sum := h.Sum32()

	predicted := model.Classes[sum%3]
	confidence := 0.75 + float64(sum%2000)/10000.0

	dist := model.Distribution{}
	for _, c := range model.Classes {
		if c == predicted {
			dist[c] = round4(confidence)
		} else {
			dist[c] = 0.1
		}
	}
	dist = renormalize(dist)

	info := f.catalog.Lookup(predicted)
	return &model.Diagnosis{
		PredictedClass:  predicted,
		Confidence:      dist[predicted],
		Severity:        info.Severity,
		Probabilities:   dist,
		AffectedRegions: info.AffectedRegions,
		Recommendations: info.Recommendations,
		DemoMode:        true,
	}
}
