package model

import "errors"

// DiagnosticClass is one of the three clinical output categories.
type DiagnosticClass string

const (
	ClassNormal      DiagnosticClass = "Normal"
	ClassPneumonia   DiagnosticClass = "Pneumonia"
	ClassLungOpacity DiagnosticClass = "Lung Opacity"
)

// Classes is the fixed, ordered taxonomy. Argmax ties are broken by
// this order.
var Classes = []DiagnosticClass{ClassNormal, ClassPneumonia, ClassLungOpacity}

// ClassNames returns the taxonomy as plain strings for API responses.
func ClassNames() []string {
	names := make([]string, len(Classes))
	for i, c := range Classes {
		names[i] = string(c)
	}
	return names
}

// BackendMode identifies which kind of backend produced a result.
type BackendMode string

const (
	ModeLocalMultiClass BackendMode = "local"
	ModeLocalPretrained BackendMode = "pretrained"
	ModeRemoteService   BackendMode = "remote"
	ModeDegraded        BackendMode = "demo"
)

// RawScore is a single (label, score) pair from a backend. The label
// vocabulary is backend-specific: either the three DiagnosticClass
// names, or the two-class {NORMAL, PNEUMONIA} set.
type RawScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Distribution maps every DiagnosticClass to a probability. Values are
// non-negative and sum to 1 within 1e-3 after rounding to 4 decimals.
type Distribution map[DiagnosticClass]float64

// ArgMax returns the highest-probability class, ties broken by the
// fixed declaration order of Classes.
func (d Distribution) ArgMax() DiagnosticClass {
	best := Classes[0]
	for _, c := range Classes[1:] {
		if d[c] > d[best] {
			best = c
		}
	}
	return best
}

// Diagnosis is the per-request prediction result. It is never persisted.
type Diagnosis struct {
	PredictedClass  DiagnosticClass `json:"predicted_class"`
	Confidence      float64         `json:"confidence"`
	Severity        string          `json:"severity"`
	Probabilities   Distribution    `json:"probabilities"`
	AffectedRegions []string        `json:"affected_regions"`
	Recommendations []string        `json:"recommendations"`
	HeatmapB64      *string         `json:"heatmap_b64"`
	DemoMode        bool            `json:"demo_mode"`
}

// HealthStatus reports the service's current serving mode.
type HealthStatus struct {
	Available bool
	Mode      BackendMode
	Classes   []DiagnosticClass
}

var (
	// ErrInvalidInput marks a client error: empty or undecodable upload.
	ErrInvalidInput = errors.New("invalid input image")

	// ErrAllBackendsFailed is returned by the cascade when every
	// configured backend has been attempted without success.
	ErrAllBackendsFailed = errors.New("all backends failed")

	// ErrNoModelLoaded is returned only when no backend is configured
	// and the offline fallback is disabled.
	ErrNoModelLoaded = errors.New("no model loaded")
)
