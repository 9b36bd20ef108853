package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/fancard/internal/frames"
	"github.com/MeKo-Tech/fancard/internal/pipeline"
	"github.com/MeKo-Tech/fancard/internal/storage"
)

// pipelineInterface defines the methods needed by the server from a pipeline.
type pipelineInterface interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
	Close() error
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    pipelineInterface
	frames      *frames.Library
	store       *storage.Store
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	CORSOrigin     string
	MaxUploadMB    int64
	TimeoutSec     int
	PipelineConfig pipeline.Config
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

type FramesResponse struct {
	Frames []frames.Info `json:"frames"`
	Count  int           `json:"count"`
}

type ProcessResponse struct {
	Success bool             `json:"success"`
	Result  *pipeline.Result `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// NewServer creates a new card server instance.
func NewServer(config Config) (*Server, error) {
	cfg := config.PipelineConfig

	pl, err := pipeline.NewBuilder().
		WithModelsDir(cfg.ModelsDir).
		WithFramesDir(cfg.FramesDir).
		WithOutputDir(cfg.OutputDir).
		WithBaseURL(cfg.BaseURL).
		WithCanvasSize(cfg.CanvasWidth, cfg.CanvasHeight).
		WithOverlay(cfg.Overlay.QRSize, cfg.Overlay.Margin).
		WithExtractionTimeout(cfg.ExtractionTimeout).
		WithWarmupIterations(cfg.WarmupIterations).
		WithThreads(cfg.Extractor.NumThreads).
		WithGPU(cfg.Extractor.GPU).
		Build()
	if err != nil {
		return nil, err
	}

	return newServerWithPipeline(pl, config), nil
}

// newServerWithPipeline wires a prebuilt pipeline into a server. Tests
// use it to inject a pipeline whose extractor needs no model files.
func newServerWithPipeline(pl *pipeline.Pipeline, config Config) *Server {
	return &Server{
		pipeline:    pl,
		frames:      pl.Frames(),
		store:       pl.Store(),
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.pipeline != nil {
		return s.pipeline.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/frames", s.corsMiddleware(s.framesHandler))
	mux.HandleFunc("/process", s.corsMiddleware(s.processHandler))
	mux.HandleFunc("/download/", s.corsMiddleware(s.downloadHandler))
	mux.Handle("/metrics", promhttp.Handler())
}
