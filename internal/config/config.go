package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/fancard/internal/compose"
	"github.com/MeKo-Tech/fancard/internal/extractor"
	"github.com/MeKo-Tech/fancard/internal/frames"
	"github.com/MeKo-Tech/fancard/internal/onnx"
	"github.com/MeKo-Tech/fancard/internal/pipeline"
)

// Config represents the complete configuration for the fancard application.
// It supports loading from configuration files, environment variables, and
// command-line flags.
type Config struct {
	// Global settings
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	FramesDir string `mapstructure:"frames_dir" yaml:"frames_dir" json:"frames_dir"`
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Pipeline configuration
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// GPU configuration
	GPU GPUConfig `mapstructure:"gpu" yaml:"gpu" json:"gpu"`
}

// PipelineConfig contains card pipeline settings.
type PipelineConfig struct {
	CanvasWidth          int `mapstructure:"canvas_width" yaml:"canvas_width" json:"canvas_width"`
	CanvasHeight         int `mapstructure:"canvas_height" yaml:"canvas_height" json:"canvas_height"`
	QRSize               int `mapstructure:"qr_size" yaml:"qr_size" json:"qr_size"`
	Margin               int `mapstructure:"margin" yaml:"margin" json:"margin"`
	ExtractionTimeoutSec int `mapstructure:"extraction_timeout_sec" yaml:"extraction_timeout_sec" json:"extraction_timeout_sec"`
	WarmupIterations     int `mapstructure:"warmup_iterations" yaml:"warmup_iterations" json:"warmup_iterations"`
	NumThreads           int `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// GPUConfig contains GPU acceleration settings.
type GPUConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Device      int    `mapstructure:"device" yaml:"device" json:"device"`
	MemoryLimit string `mapstructure:"memory_limit" yaml:"memory_limit" json:"memory_limit"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ModelsDir: extractor.DefaultModelsDir,
		FramesDir: frames.DefaultFramesDir,
		OutputDir: "output",
		BaseURL:   "http://localhost:8080",
		LogLevel:  "info",
		Verbose:   false,
		Pipeline: PipelineConfig{
			CanvasWidth:          compose.DefaultCanvasWidth,
			CanvasHeight:         compose.DefaultCanvasHeight,
			QRSize:               compose.DefaultQRSize,
			Margin:               compose.DefaultMargin,
			ExtractionTimeoutSec: 60,
			WarmupIterations:     0,
			NumThreads:           0,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     16,
			TimeoutSec:      120,
			ShutdownTimeout: 10,
		},
		GPU: GPUConfig{
			Enabled:     false,
			Device:      0,
			MemoryLimit: "auto",
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Pipeline.CanvasWidth <= 0 || c.Pipeline.CanvasHeight <= 0 {
		return fmt.Errorf("invalid canvas size: %dx%d (dimensions must be positive)",
			c.Pipeline.CanvasWidth, c.Pipeline.CanvasHeight)
	}
	if c.Pipeline.QRSize <= 0 {
		return fmt.Errorf("invalid qr size: %d (must be positive)", c.Pipeline.QRSize)
	}
	if c.Pipeline.Margin < 0 {
		return fmt.Errorf("invalid margin: %d (must be non-negative)", c.Pipeline.Margin)
	}
	if c.Pipeline.ExtractionTimeoutSec <= 0 {
		return fmt.Errorf("invalid extraction timeout: %d (must be positive)", c.Pipeline.ExtractionTimeoutSec)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}

	if c.GPU.MemoryLimit != "auto" && c.GPU.MemoryLimit != "" {
		if err := validateMemoryLimit(c.GPU.MemoryLimit); err != nil {
			return fmt.Errorf("invalid GPU memory limit: %w", err)
		}
	}

	return nil
}

// ToPipelineConfig converts the config to the internal pipeline configuration format.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.ModelsDir = extractor.GetModelsDir(c.ModelsDir)
	cfg.FramesDir = frames.GetFramesDir(c.FramesDir)
	if c.OutputDir != "" {
		cfg.OutputDir = c.OutputDir
	}
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	cfg.CanvasWidth = c.Pipeline.CanvasWidth
	cfg.CanvasHeight = c.Pipeline.CanvasHeight
	cfg.Overlay.QRSize = c.Pipeline.QRSize
	cfg.Overlay.Margin = c.Pipeline.Margin
	cfg.ExtractionTimeout = time.Duration(c.Pipeline.ExtractionTimeoutSec) * time.Second
	cfg.WarmupIterations = c.Pipeline.WarmupIterations
	cfg.Extractor.NumThreads = c.Pipeline.NumThreads
	cfg.Extractor.GPU = c.toGPUConfig()
	cfg.Extractor.UpdateModelPath(cfg.ModelsDir)
	return cfg
}

// toGPUConfig converts to onnx.GPUConfig.
func (c *Config) toGPUConfig() onnx.GPUConfig {
	cfg := onnx.DefaultGPUConfig()
	cfg.UseGPU = c.GPU.Enabled
	cfg.DeviceID = c.GPU.Device
	if limit, err := parseMemoryLimit(c.GPU.MemoryLimit); err == nil {
		cfg.GPUMemLimit = limit
	}
	return cfg
}

// Helper functions

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateMemoryLimit validates GPU memory limit format (e.g., "1GB", "512MB").
func validateMemoryLimit(limit string) error {
	if limit == "" || limit == "auto" {
		return nil
	}
	_, err := parseMemoryLimit(limit)
	return err
}

// parseMemoryLimit converts a human-readable limit like "1GB" to bytes.
// "auto" and "" mean unlimited and parse to zero.
func parseMemoryLimit(limit string) (uint64, error) {
	if limit == "" || limit == "auto" {
		return 0, nil
	}

	upper := strings.ToUpper(limit)
	units := []struct {
		suffix string
		factor float64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	}
	for _, u := range units {
		if strings.HasSuffix(upper, u.suffix) {
			numStr := strings.TrimSuffix(upper, u.suffix)
			n, err := strconv.ParseFloat(numStr, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid number in memory limit: %s", limit)
			}
			if n < 0 {
				return 0, fmt.Errorf("memory limit must be non-negative: %s", limit)
			}
			return uint64(n * u.factor), nil
		}
	}
	return 0, fmt.Errorf("memory limit must end with one of: B, KB, MB, GB")
}
