package extractor

import (
	"os"
	"path/filepath"
)

// MattingModel is the segmentation model filename consumed as a fixed
// capability; the model itself is never trained or tuned here.
const MattingModel = "u2net.onnx"

// DefaultModelsDir is the model directory relative to the project root.
const DefaultModelsDir = "models"

// EnvModelsDir overrides the models directory.
const EnvModelsDir = "FANCARD_MODELS_DIR"

// GetModelsDir returns the models directory path.
// Priority: explicit parameter, environment variable, project root + default.
func GetModelsDir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}
	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}
	if root, err := findProjectRoot(); err == nil {
		return filepath.Join(root, DefaultModelsDir)
	}
	return DefaultModelsDir
}

// GetMattingModelPath resolves the matting model file under the models dir.
func GetMattingModelPath(modelsDir string) string {
	return filepath.Join(GetModelsDir(modelsDir), MattingModel)
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
