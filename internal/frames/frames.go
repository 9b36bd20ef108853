package frames

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/MeKo-Tech/fancard/internal/utils"
)

// Frame selectors form a fixed enumerated set. Anything outside the
// range falls back to the default frame; the clamp policy is applied
// consistently everywhere a selector is parsed.
const (
	MinSelector     = 1
	MaxSelector     = 6
	DefaultSelector = 1
)

// DefaultFramesDir is the frame asset directory relative to the project root.
const DefaultFramesDir = "frames"

// EnvFramesDir overrides the frame asset directory.
const EnvFramesDir = "FANCARD_FRAMES_DIR"

// GetFramesDir returns the frame directory path.
// Priority: explicit parameter, environment variable, project root + default.
func GetFramesDir(dir string) string {
	if dir != "" {
		return dir
	}
	if envDir := os.Getenv(EnvFramesDir); envDir != "" {
		return envDir
	}
	if root, err := findProjectRoot(); err == nil {
		return filepath.Join(root, DefaultFramesDir)
	}
	return DefaultFramesDir
}

// findProjectRoot walks up from the working directory looking for go.mod.
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
			return "", fmt.Errorf("could not find project root (go.mod not found)")
		}
		dir = parent
	}
}

// ClampSelector parses a raw selector string. Non-numeric or
// out-of-range values fall back to the default frame.
func ClampSelector(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < MinSelector || n > MaxSelector {
		return DefaultSelector
	}
	return n
}

// Path returns the asset path for a frame selector (frame_N.png).
func Path(dir string, selector int) string {
	return filepath.Join(dir, fmt.Sprintf("frame_%d.png", selector))
}

// LoadError reports a missing or malformed frame asset. It is fatal for
// the request that needed the frame; assets are never retried.
type LoadError struct {
	Selector int
	Path     string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("frame %d (%s): %v", e.Selector, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Info describes one frame asset for listings.
type Info struct {
	Selector int    `json:"selector"`
	Path     string `json:"path"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Library resolves and caches frame assets. Frames are loaded eagerly on
// first use, validated against the canvas dimensions, and then shared
// read-only across requests.
type Library struct {
	dir     string
	canvasW int
	canvasH int

	mu    sync.RWMutex
	cache map[int]image.Image
}

// NewLibrary creates a frame library rooted at dir. An empty dir is
// resolved via GetFramesDir.
func NewLibrary(dir string, canvasW, canvasH int) *Library {
	return &Library{
		dir:     GetFramesDir(dir),
		canvasW: canvasW,
		canvasH: canvasH,
		cache:   make(map[int]image.Image),
	}
}

// Dir returns the resolved frame directory.
func (l *Library) Dir() string { return l.dir }

// Load returns the frame for the selector, loading and size-checking it
// on first access. The returned image must be treated as read-only.
func (l *Library) Load(selector int) (image.Image, error) {
	if selector < MinSelector || selector > MaxSelector {
		selector = DefaultSelector
	}

	l.mu.RLock()
	if img, ok := l.cache[selector]; ok {
		l.mu.RUnlock()
		return img, nil
	}
	l.mu.RUnlock()

	path := Path(l.dir, selector)
	img, _, err := utils.LoadImage(path)
	if err != nil {
		return nil, &LoadError{Selector: selector, Path: path, Err: err}
	}
	b := img.Bounds()
	if b.Dx() != l.canvasW || b.Dy() != l.canvasH {
		return nil, &LoadError{
			Selector: selector,
			Path:     path,
			Err:      fmt.Errorf("frame is %dx%d, want %dx%d", b.Dx(), b.Dy(), l.canvasW, l.canvasH),
		}
	}

	l.mu.Lock()
	l.cache[selector] = img
	l.mu.Unlock()
	return img, nil
}

// Validate eagerly loads every frame in the set and reports the first
// missing or mismatched asset.
func (l *Library) Validate() error {
	for sel := MinSelector; sel <= MaxSelector; sel++ {
		if _, err := l.Load(sel); err != nil {
			return err
		}
	}
	return nil
}

// List returns metadata for the frames that are currently present on
// disk. Missing frames are skipped rather than reported as errors.
func (l *Library) List() []Info {
	infos := make([]Info, 0, MaxSelector)
	for sel := MinSelector; sel <= MaxSelector; sel++ {
		img, err := l.Load(sel)
		if err != nil {
			continue
		}
		b := img.Bounds()
		infos = append(infos, Info{
			Selector: sel,
			Path:     Path(l.dir, sel),
			Width:    b.Dx(),
			Height:   b.Dy(),
		})
	}
	return infos
}
