package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"pulmoscan/internal/backend"
	"pulmoscan/internal/model"
)

type fakeBackend struct {
	name   string
	mode   model.BackendMode
	two    bool
	scores []model.RawScore
	err    error
	calls  int
}

func (f *fakeBackend) Name() string            { return f.name }
func (f *fakeBackend) Mode() model.BackendMode { return f.mode }
func (f *fakeBackend) TwoClass() bool          { return f.two }

func (f *fakeBackend) Classify(ctx context.Context, imageBytes []byte) ([]model.RawScore, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

// testImage encodes a small grayscale PNG.
func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * y * 4)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func newService(fallback bool, backends ...backend.Backend) *PredictionService {
	catalog := model.NewClinicalCatalog()
	var fb *Fallback
	if fallback {
		fb = NewFallback(catalog)
	}
	return NewPredictionService(backend.NewRegistry(backends...), catalog, fb)
}

func TestCascadeFallsThrough(t *testing.T) {
	broken := &fakeBackend{name: "broken", mode: model.ModeLocalMultiClass, err: errors.New("model not loaded")}
	working := &fakeBackend{
		name: "working", mode: model.ModeLocalPretrained, two: true,
		scores: []model.RawScore{{Label: "NORMAL", Score: 0.9}, {Label: "PNEUMONIA", Score: 0.1}},
	}

	cascade := NewCascade(backend.NewRegistry(broken, working))
	scores, b, err := cascade.Classify(context.Background(), testImage(t))
	if err != nil {
		t.Fatalf("cascade failed: %v", err)
	}
	if b.Name() != "working" {
		t.Errorf("cascade picked %s, want working", b.Name())
	}
	if broken.calls != 1 || working.calls != 1 {
		t.Errorf("backends attempted %d/%d times, want 1/1", broken.calls, working.calls)
	}
	if len(scores) != 2 {
		t.Errorf("got %d scores, want 2", len(scores))
	}
}

func TestCascadeAllBackendsFail(t *testing.T) {
	first := &fakeBackend{name: "a", err: errors.New("timeout")}
	second := &fakeBackend{name: "b", err: errors.New("network error")}

	cascade := NewCascade(backend.NewRegistry(first, second))
	_, _, err := cascade.Classify(context.Background(), testImage(t))
	if !errors.Is(err, model.ErrAllBackendsFailed) {
		t.Fatalf("got %v, want ErrAllBackendsFailed", err)
	}
}

func TestPredictRejectsEmptyInput(t *testing.T) {
	svc := newService(true)

	_, err := svc.Predict(context.Background(), nil)
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestPredictRejectsUndecodableInput(t *testing.T) {
	svc := newService(true)

	_, err := svc.Predict(context.Background(), []byte("definitely not an image"))
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestPredictRemapsTwoClassBackend(t *testing.T) {
	b := &fakeBackend{
		name: "pretrained", mode: model.ModeLocalPretrained, two: true,
		scores: []model.RawScore{{Label: "NORMAL", Score: 0.9}, {Label: "PNEUMONIA", Score: 0.1}},
	}
	svc := newService(true, b)

	d, err := svc.Predict(context.Background(), testImage(t))
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if d.PredictedClass != model.ClassNormal {
		t.Errorf("predicted %s, want %s", d.PredictedClass, model.ClassNormal)
	}
	if d.Confidence != 0.85 {
		t.Errorf("confidence = %f, want 0.85", d.Confidence)
	}
	if d.Severity != "Low" {
		t.Errorf("severity = %s, want Low", d.Severity)
	}
	if d.DemoMode {
		t.Error("real inference must not be flagged as demo mode")
	}
	if d.HeatmapB64 != nil {
		t.Error("heatmap is not produced and must stay null")
	}
}

func TestPredictBackendFailureInvisibleToCaller(t *testing.T) {
	broken := &fakeBackend{name: "broken", mode: model.ModeLocalMultiClass, err: errors.New("boom")}
	working := &fakeBackend{
		name: "working", mode: model.ModeRemoteService, two: true,
		scores: []model.RawScore{{Label: "PNEUMONIA", Score: 0.95}, {Label: "NORMAL", Score: 0.05}},
	}
	svc := newService(true, broken, working)

	d, err := svc.Predict(context.Background(), testImage(t))
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if d.DemoMode {
		t.Error("a successful backend must not yield a degraded result")
	}
	if d.PredictedClass != model.ClassPneumonia {
		t.Errorf("predicted %s, want %s", d.PredictedClass, model.ClassPneumonia)
	}
	if got := svc.HealthStatus().Mode; got != model.ModeRemoteService {
		t.Errorf("health mode = %s, want %s", got, model.ModeRemoteService)
	}
}

func TestPredictDegradesWhenAllBackendsFail(t *testing.T) {
	b := &fakeBackend{name: "down", mode: model.ModeLocalMultiClass, err: errors.New("down")}
	svc := newService(true, b)
	input := testImage(t)

	first, err := svc.Predict(context.Background(), input)
	if err != nil {
		t.Fatalf("predict must not fail when the fallback is enabled: %v", err)
	}
	if !first.DemoMode {
		t.Error("degraded result must be flagged as demo mode")
	}

	second, err := svc.Predict(context.Background(), input)
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if first.PredictedClass != second.PredictedClass || first.Confidence != second.Confidence {
		t.Error("degraded results must be deterministic for identical input")
	}

	if got := svc.HealthStatus().Mode; got != model.ModeDegraded {
		t.Errorf("health mode = %s, want %s", got, model.ModeDegraded)
	}
}

func TestPredictNoBackendsNoFallback(t *testing.T) {
	svc := newService(false)

	_, err := svc.Predict(context.Background(), testImage(t))
	if !errors.Is(err, model.ErrNoModelLoaded) {
		t.Fatalf("got %v, want ErrNoModelLoaded", err)
	}
}

func TestHealthStatusBeforeFirstPredict(t *testing.T) {
	b := &fakeBackend{name: "local", mode: model.ModeLocalMultiClass}
	svc := newService(true, b)

	status := svc.HealthStatus()
	if !status.Available {
		t.Error("service with a configured backend must report available")
	}
	if status.Mode != model.ModeLocalMultiClass {
		t.Errorf("mode = %s, want %s", status.Mode, model.ModeLocalMultiClass)
	}
	if len(status.Classes) != 3 {
		t.Errorf("got %d classes, want 3", len(status.Classes))
	}

	empty := newService(true)
	if empty.HealthStatus().Available {
		t.Error("service without backends must report unavailable")
	}
	if got := empty.HealthStatus().Mode; got != model.ModeDegraded {
		t.Errorf("mode = %s, want %s", got, model.ModeDegraded)
	}
}
