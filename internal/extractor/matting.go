package extractor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/MeKo-Tech/fancard/internal/onnx"
	"github.com/yalue/onnxruntime_go"
)

// Config holds configuration for the ONNX matting extractor.
type Config struct {
	ModelPath           string         // Path to the ONNX segmentation model
	InputSize           int            // Model input edge length (default: 320)
	ForegroundThreshold uint8          // Alpha at or above this is fully opaque (default: 240)
	BackgroundThreshold uint8          // Alpha at or below this is fully transparent (default: 10)
	NumThreads          int            // Intra-op CPU threads (0 = auto)
	GPU                 onnx.GPUConfig // GPU acceleration configuration
}

// DefaultConfig returns the default extractor configuration. The
// threshold pair gives soft matting at the subject edges instead of a
// hard binary mask.
func DefaultConfig() Config {
	return Config{
		ModelPath:           GetMattingModelPath(""),
		InputSize:           320,
		ForegroundThreshold: 240,
		BackgroundThreshold: 10,
		NumThreads:          0,
		GPU:                 onnx.DefaultGPUConfig(),
	}
}

// UpdateModelPath re-resolves the model path against modelsDir.
func (c *Config) UpdateModelPath(modelsDir string) {
	c.ModelPath = GetMattingModelPath(modelsDir)
}

// Matting runs subject extraction with an ONNX segmentation model.
type Matting struct {
	config     Config
	session    *onnxruntime_go.DynamicAdvancedSession
	inputInfo  onnxruntime_go.InputOutputInfo
	outputInfo onnxruntime_go.InputOutputInfo
	mu         sync.RWMutex
}

// NewMatting loads the segmentation model and prepares an inference
// session.
func NewMatting(config Config) (*Matting, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if _, err := os.Stat(config.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("matting model not found: %s", config.ModelPath)
	}

	slog.Debug("Initializing matting extractor",
		"model_path", config.ModelPath,
		"input_size", config.InputSize,
		"gpu_enabled", config.GPU.UseGPU)

	if err := onnx.EnsureEnvironment(config.GPU.UseGPU); err != nil {
		return nil, err
	}

	inputInfo, outputInfo, err := validateModelInfo(config.ModelPath)
	if err != nil {
		return nil, err
	}

	session, err := createSession(config.ModelPath, inputInfo, outputInfo, config)
	if err != nil {
		return nil, err
	}

	m := &Matting{
		config:     config,
		session:    session,
		inputInfo:  inputInfo,
		outputInfo: outputInfo,
	}
	slog.Debug("Matting extractor initialized")
	return m, nil
}

// Close releases the inference session.
func (m *Matting) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		if err := m.session.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to destroy matting session: %v\n", err)
		}
		m.session = nil
	}
	return nil
}

// Config returns a copy of the extractor configuration.
func (m *Matting) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

type inferenceResult struct {
	mask []float32
	w, h int
	err  error
}

// Extract runs segmentation and applies the predicted mask as a soft
// alpha channel. The call honors ctx cancellation and deadlines; a run
// that outlives ctx is abandoned and its result discarded.
func (m *Matting) Extract(ctx context.Context, img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	tensor, release, err := m.preprocess(img)
	if err != nil {
		return nil, fmt.Errorf("preprocessing failed: %w", err)
	}

	resCh := make(chan inferenceResult, 1)
	go func() {
		mask, w, h, err := m.runInference(tensor)
		release()
		resCh <- inferenceResult{mask: mask, w: w, h: h, err: err}
	}()

	var res inferenceResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-resCh:
	}
	if res.err != nil {
		return nil, res.err
	}

	cutout := m.applyMask(img, res.mask, res.w, res.h)

	slog.Debug("Subject extracted",
		"duration_ms", time.Since(start).Milliseconds(),
		"mask_size", fmt.Sprintf("%dx%d", res.w, res.h))
	return cutout, nil
}

// runInference executes a single forward pass and returns the raw mask.
func (m *Matting) runInference(tensor onnx.Tensor) ([]float32, int, int, error) {
	if err := onnx.VerifyImageTensor(tensor); err != nil {
		return nil, 0, 0, fmt.Errorf("invalid tensor: %w", err)
	}

	m.mu.RLock()
	session := m.session
	m.mu.RUnlock()
	if session == nil {
		return nil, 0, 0, errors.New("matting session is nil")
	}

	inputTensor, err := onnxruntime_go.NewTensor(onnxruntime_go.NewShape(tensor.Shape...), tensor.Data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() {
		if err := inputTensor.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying input tensor: %v\n", err)
		}
	}()

	outputs := []onnxruntime_go.Value{nil}
	if err := session.Run([]onnxruntime_go.Value{inputTensor}, outputs); err != nil {
		return nil, 0, 0, fmt.Errorf("inference failed: %w", err)
	}
	outputTensor := outputs[0]
	defer func() {
		if err := outputTensor.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying output tensor: %v\n", err)
		}
	}()

	floatTensor, ok := outputTensor.(*onnxruntime_go.Tensor[float32])
	if !ok {
		return nil, 0, 0, fmt.Errorf("expected float32 tensor, got %T", outputTensor)
	}

	shape := outputTensor.GetShape()
	if len(shape) != 4 {
		return nil, 0, 0, fmt.Errorf("expected 4D output tensor, got %dD", len(shape))
	}
	w := int(shape[3])
	h := int(shape[2])

	// Copy out before the tensor is destroyed.
	data := floatTensor.GetData()
	mask := make([]float32, w*h)
	copy(mask, data[:w*h])
	return mask, w, h, nil
}

// Warmup runs forward passes with a blank portrait to reduce first-request
// latency.
func (m *Matting) Warmup(iterations int) error {
	if iterations <= 0 {
		return nil
	}
	size := m.config.InputSize
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	for range iterations {
		tensor, release, err := m.preprocess(img)
		if err != nil {
			return err
		}
		_, _, _, err = m.runInference(tensor)
		release()
		if err != nil {
			return err
		}
	}
	return nil
}

func validateConfig(config Config) error {
	if config.ModelPath == "" {
		return errors.New("model path cannot be empty")
	}
	if config.InputSize <= 0 {
		return errors.New("input size must be > 0")
	}
	if config.ForegroundThreshold <= config.BackgroundThreshold {
		return errors.New("foreground threshold must exceed background threshold")
	}
	return onnx.ValidateGPUConfig(config.GPU)
}

func validateModelInfo(modelPath string) (onnxruntime_go.InputOutputInfo, onnxruntime_go.InputOutputInfo, error) {
	inputs, outputs, err := onnxruntime_go.GetInputOutputInfo(modelPath)
	if err != nil {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) != 1 {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			fmt.Errorf("expected 1 input, got %d", len(inputs))
	}
	if len(outputs) < 1 {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			errors.New("model has no outputs")
	}
	return inputs[0], outputs[0], nil
}

func createSession(modelPath string, inputInfo, outputInfo onnxruntime_go.InputOutputInfo,
	config Config,
) (*onnxruntime_go.DynamicAdvancedSession, error) {
	sessionOptions, err := onnxruntime_go.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() {
		if err := sessionOptions.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to destroy session options: %v\n", err)
		}
	}()

	if err := onnx.ConfigureSessionForGPU(sessionOptions, config.GPU); err != nil {
		return nil, fmt.Errorf("failed to configure GPU: %w", err)
	}
	if config.NumThreads > 0 {
		if err := sessionOptions.SetIntraOpNumThreads(config.NumThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := onnxruntime_go.NewDynamicAdvancedSession(modelPath,
		[]string{inputInfo.Name}, []string{outputInfo.Name}, sessionOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return session, nil
}
