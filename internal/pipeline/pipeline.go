package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/MeKo-Tech/fancard/internal/compose"
	"github.com/MeKo-Tech/fancard/internal/extractor"
	"github.com/MeKo-Tech/fancard/internal/frames"
	"github.com/MeKo-Tech/fancard/internal/onnx"
	"github.com/MeKo-Tech/fancard/internal/storage"
)

// Config holds configuration for the card pipeline and its components.
type Config struct {
	ModelsDir    string
	FramesDir    string
	OutputDir    string
	BaseURL      string // public base for download links embedded in QR codes
	CanvasWidth  int
	CanvasHeight int
	Extractor    extractor.Config
	Overlay      compose.OverlayConfig
	// ExtractionTimeout bounds a single matting inference.
	ExtractionTimeout time.Duration
	WarmupIterations  int // optional warmup runs to reduce first-run latency
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		ModelsDir:         extractor.GetModelsDir(""),
		FramesDir:         frames.GetFramesDir(""),
		OutputDir:         "output",
		BaseURL:           "http://localhost:8080",
		CanvasWidth:       compose.DefaultCanvasWidth,
		CanvasHeight:      compose.DefaultCanvasHeight,
		Extractor:         extractor.DefaultConfig(),
		Overlay:           compose.DefaultOverlayConfig(),
		ExtractionTimeout: 60 * time.Second,
		WarmupIterations:  0,
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg       Config
	extractor extractor.Extractor
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// NewBuilderFromConfig creates a builder seeded from an existing config.
func NewBuilderFromConfig(cfg Config) *Builder { return &Builder{cfg: cfg} }

// WithModelsDir sets the models directory and updates the matting model path.
func (b *Builder) WithModelsDir(dir string) *Builder {
	if dir != "" {
		b.cfg.ModelsDir = dir
	}
	b.cfg.Extractor.UpdateModelPath(b.cfg.ModelsDir)
	return b
}

// WithFramesDir sets the directory holding frame overlays.
func (b *Builder) WithFramesDir(dir string) *Builder {
	if dir != "" {
		b.cfg.FramesDir = dir
	}
	return b
}

// WithOutputDir sets the directory finished cards are written to.
func (b *Builder) WithOutputDir(dir string) *Builder {
	if dir != "" {
		b.cfg.OutputDir = dir
	}
	return b
}

// WithBaseURL sets the public base URL used for download links.
func (b *Builder) WithBaseURL(url string) *Builder {
	if url != "" {
		b.cfg.BaseURL = url
	}
	return b
}

// WithCanvasSize overrides the output canvas dimensions.
func (b *Builder) WithCanvasSize(width, height int) *Builder {
	if width > 0 && height > 0 {
		b.cfg.CanvasWidth = width
		b.cfg.CanvasHeight = height
	}
	return b
}

// WithOverlay overrides QR code size and edge margin.
func (b *Builder) WithOverlay(qrSize, margin int) *Builder {
	if qrSize > 0 {
		b.cfg.Overlay.QRSize = qrSize
	}
	if margin >= 0 {
		b.cfg.Overlay.Margin = margin
	}
	return b
}

// WithExtractionTimeout bounds a single matting inference.
func (b *Builder) WithExtractionTimeout(d time.Duration) *Builder {
	if d > 0 {
		b.cfg.ExtractionTimeout = d
	}
	return b
}

// WithWarmupIterations sets the number of warmup inference runs.
func (b *Builder) WithWarmupIterations(n int) *Builder {
	if n >= 0 {
		b.cfg.WarmupIterations = n
	}
	return b
}

// WithThreads sets intra-op thread count for the matting session.
func (b *Builder) WithThreads(n int) *Builder {
	if n >= 0 {
		b.cfg.Extractor.NumThreads = n
	}
	return b
}

// WithGPU sets GPU acceleration options for the matting session.
func (b *Builder) WithGPU(gpu onnx.GPUConfig) *Builder {
	b.cfg.Extractor.GPU = gpu
	return b
}

// WithExtractor injects a pre-built extractor, bypassing model loading.
// The pipeline takes ownership and closes it.
func (b *Builder) WithExtractor(ex extractor.Extractor) *Builder {
	b.extractor = ex
	return b
}

// Validate checks the builder configuration before building.
func (b *Builder) Validate() error {
	if b.cfg.CanvasWidth <= 0 || b.cfg.CanvasHeight <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", b.cfg.CanvasWidth, b.cfg.CanvasHeight)
	}
	if b.cfg.ExtractionTimeout <= 0 {
		return errors.New("extraction timeout must be positive")
	}
	if b.cfg.OutputDir == "" {
		return errors.New("output directory is required")
	}
	return nil
}

// Pipeline turns an uploaded portrait into a finished fan card.
type Pipeline struct {
	cfg       Config
	extractor extractor.Extractor
	frames    *frames.Library
	store     *storage.Store
}

// Build assembles the pipeline, loading the matting model unless an
// extractor was injected.
func (b *Builder) Build() (*Pipeline, error) {
	b.cfg.Extractor.UpdateModelPath(b.cfg.ModelsDir)

	if err := b.Validate(); err != nil {
		return nil, err
	}

	ex := b.extractor
	if ex == nil {
		m, err := extractor.NewMatting(b.cfg.Extractor)
		if err != nil {
			return nil, fmt.Errorf("init matting: %w", err)
		}
		if b.cfg.WarmupIterations > 0 {
			if err := m.Warmup(b.cfg.WarmupIterations); err != nil {
				_ = m.Close()
				return nil, fmt.Errorf("matting warmup failed: %w", err)
			}
		}
		ex = m
	}

	store, err := storage.NewStore(b.cfg.OutputDir)
	if err != nil {
		_ = ex.Close()
		return nil, err
	}

	return &Pipeline{
		cfg:       b.cfg,
		extractor: ex,
		frames:    frames.NewLibrary(b.cfg.FramesDir, b.cfg.CanvasWidth, b.cfg.CanvasHeight),
		store:     store,
	}, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Frames returns the frame library backing the pipeline.
func (p *Pipeline) Frames() *frames.Library { return p.frames }

// Store returns the artifact store backing the pipeline.
func (p *Pipeline) Store() *storage.Store { return p.store }

// Close releases all resources.
func (p *Pipeline) Close() error {
	var firstErr error
	if p.extractor != nil {
		if err := p.extractor.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.extractor = nil
	}
	return firstErr
}
