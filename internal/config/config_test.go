package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/fancard/internal/compose"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, compose.DefaultCanvasWidth, cfg.Pipeline.CanvasWidth)
	assert.Equal(t, compose.DefaultCanvasHeight, cfg.Pipeline.CanvasHeight)
	assert.Equal(t, compose.DefaultQRSize, cfg.Pipeline.QRSize)
	assert.Equal(t, compose.DefaultMargin, cfg.Pipeline.Margin)
	assert.Equal(t, 16, cfg.Server.MaxUploadMB)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.GPU.Enabled)

	require.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestValidate(t *testing.T) {
	mutate := func(f func(*Config)) *Config {
		cfg := DefaultConfig()
		f(&cfg)
		return &cfg
	}

	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{"bad log level", mutate(func(c *Config) { c.LogLevel = "trace" }), "invalid log level"},
		{"zero canvas", mutate(func(c *Config) { c.Pipeline.CanvasWidth = 0 }), "invalid canvas size"},
		{"negative margin", mutate(func(c *Config) { c.Pipeline.Margin = -1 }), "invalid margin"},
		{"zero qr", mutate(func(c *Config) { c.Pipeline.QRSize = 0 }), "invalid qr size"},
		{"zero timeout", mutate(func(c *Config) { c.Pipeline.ExtractionTimeoutSec = 0 }), "invalid extraction timeout"},
		{"bad port", mutate(func(c *Config) { c.Server.Port = 0 }), "invalid server port"},
		{"huge port", mutate(func(c *Config) { c.Server.Port = 70000 }), "invalid server port"},
		{"zero upload", mutate(func(c *Config) { c.Server.MaxUploadMB = 0 }), "invalid max upload"},
		{"bad memory limit", mutate(func(c *Config) { c.GPU.MemoryLimit = "lots" }), "invalid GPU memory limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToPipelineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = "/srv/cards"
	cfg.BaseURL = "https://cards.example.com"
	cfg.Pipeline.ExtractionTimeoutSec = 15
	cfg.Pipeline.WarmupIterations = 2
	cfg.Pipeline.QRSize = 200
	cfg.GPU.Enabled = true
	cfg.GPU.Device = 1
	cfg.GPU.MemoryLimit = "2GB"

	pc := cfg.ToPipelineConfig()

	assert.Equal(t, "/srv/cards", pc.OutputDir)
	assert.Equal(t, "https://cards.example.com", pc.BaseURL)
	assert.Equal(t, 15*time.Second, pc.ExtractionTimeout)
	assert.Equal(t, 2, pc.WarmupIterations)
	assert.Equal(t, 200, pc.Overlay.QRSize)
	assert.True(t, pc.Extractor.GPU.UseGPU)
	assert.Equal(t, 1, pc.Extractor.GPU.DeviceID)
	assert.Equal(t, uint64(2)<<30, pc.Extractor.GPU.GPUMemLimit)
	assert.Contains(t, pc.Extractor.ModelPath, "u2net.onnx")
}

func TestParseMemoryLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"auto", 0, false},
		{"", 0, false},
		{"512MB", 512 << 20, false},
		{"1GB", 1 << 30, false},
		{"2kb", 2 << 10, false},
		{"100B", 100, false},
		{"abcMB", 0, true},
		{"512", 0, true},
		{"-1GB", 0, true},
	}
	for _, tt := range tests {
		got, err := parseMemoryLimit(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}
