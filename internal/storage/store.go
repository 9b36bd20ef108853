package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// OutputSuffix is appended to every generated artifact name.
const OutputSuffix = "_card.png"

// ErrExists is returned when a generated filename would overwrite an
// existing artifact. Collisions are refused, never resolved silently.
var ErrExists = errors.New("artifact already exists")

// ErrNotFound is returned when a requested artifact is unknown.
var ErrNotFound = errors.New("artifact not found")

// Store persists finished card images under unique names. Writes are
// atomic from the reader's perspective: content lands in a temp file and
// is renamed into place, so a partially written card is never served.
type Store struct {
	dir string
}

// NewStore creates the output directory if needed and returns a store
// rooted there.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("storage: empty output directory")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create output dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// NewFilename generates a unique artifact name: eight hex characters of
// a random UUID plus the fixed suffix.
func (s *Store) NewFilename() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return id + OutputSuffix
}

// Put writes data under name atomically. A name that already exists is
// an error.
func (s *Store) Put(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	final := filepath.Join(s.dir, name)
	if _, err := os.Stat(final); err == nil {
		return fmt.Errorf("storage: %q: %w", name, ErrExists)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*"+OutputSuffix)
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: close artifact: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: publish artifact: %w", err)
	}
	return nil
}

// Path resolves a previously persisted artifact, refusing traversal and
// unknown names.
func (s *Store) Path(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	p := filepath.Join(s.dir, name)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("storage: %q: %w", name, ErrNotFound)
	}
	return p, nil
}

// validateName keeps artifact names to plain filenames inside the store.
func validateName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("storage: invalid artifact name %q", name)
	}
	return nil
}
