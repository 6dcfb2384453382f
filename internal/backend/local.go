package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"pulmoscan/internal/imaging"
	"pulmoscan/internal/model"
)

// ModelConfig is the metadata JSON stored next to a model artifact.
type ModelConfig struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
	Grayscale   bool     `json:"grayscale"`
}

// Local runs an ONNX model in-process. The session owns one
// preallocated input/output tensor pair, so concurrent Classify calls
// are serialized by a mutex.
type Local struct {
	name    string
	mode    model.BackendMode
	config  ModelConfig
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

var ortInitOnce sync.Once

// NewLocal loads an ONNX model and its metadata JSON. mode selects the
// reported serving mode: ModeLocalMultiClass for the 3-class model,
// ModeLocalPretrained for the two-class pretrained model.
func NewLocal(name, modelPath, configPath string, mode model.BackendMode) (*Local, error) {
	var initErr error
	ortInitOnce.Do(func() {
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return nil, fmt.Errorf("initialize ONNX environment: %w", initErr)
	}

	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read model config: %w", err)
	}

	var cfg ModelConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse model config: %w", err)
	}
	if len(cfg.Classes) == 0 {
		return nil, fmt.Errorf("model config %s lists no classes", configPath)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(cfg.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(cfg.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create ONNX session: %w", err)
	}

	return &Local{
		name:    name,
		mode:    mode,
		config:  cfg,
		session: session,
		input:   inputTensor,
		output:  outputTensor,
	}, nil
}

func (l *Local) Name() string { return l.name }

func (l *Local) Mode() model.BackendMode { return l.mode }

func (l *Local) TwoClass() bool { return len(l.config.Classes) == 2 }

// Classify decodes, preprocesses and runs the model, returning one
// RawScore per configured class.
func (l *Local) Classify(ctx context.Context, imageBytes []byte) ([]model.RawScore, error) {
	img, err := imaging.Decode(imageBytes)
	if err != nil {
		return nil, err
	}

	var tensor []float32
	if l.config.Grayscale {
		tensor = imaging.GrayTensor(img, l.config.ImageSize)
	} else {
		tensor = imaging.RGBTensor(img, l.config.ImageSize)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	in := l.input.GetData()
	if len(tensor) != len(in) {
		return nil, fmt.Errorf("preprocessed %d values, model expects %d", len(tensor), len(in))
	}
	copy(in, tensor)

	if err := l.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := l.output.GetData()
	if len(out) < len(l.config.Classes) {
		return nil, fmt.Errorf("model emitted %d scores for %d classes", len(out), len(l.config.Classes))
	}

	scores := make([]model.RawScore, len(l.config.Classes))
	for i, class := range l.config.Classes {
		scores[i] = model.RawScore{Label: class, Score: float64(out[i])}
	}
	return scores, nil
}

// Close releases the session and its tensors.
func (l *Local) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.input != nil {
		l.input.Destroy()
	}
	if l.output != nil {
		l.output.Destroy()
	}
	if l.session != nil {
		l.session.Destroy()
	}
}
