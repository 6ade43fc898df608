package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const manifestVersion = 1

var (
	// ErrManifestMissing indicates no manifest exists; the corpus has not
	// been indexed yet.
	ErrManifestMissing = errors.New("corpus manifest missing")

	// ErrManifestMismatch indicates the index was built with a different
	// model or dimension than the server is configured for.
	ErrManifestMismatch = errors.New("corpus manifest mismatch")
)

// Manifest records how the current index was built. The indexer writes
// it after a successful run; the query server verifies it at startup so
// queries never run against an index built with a different model.
type Manifest struct {
	Version   int       `json:"version"`
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
	Count     int       `json:"count"`
	IndexedAt time.Time `json:"indexed_at"`
}

// WriteManifest writes the manifest, creating parent directories.
func WriteManifest(path string, m Manifest) error {
	m.Version = manifestVersion

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest at path.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Manifest{}, fmt.Errorf("%w: %s", ErrManifestMissing, path)
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

// Verify checks the manifest against the configured model and dimension.
func (m Manifest) Verify(model string, dimension int) error {
	if m.Model != model {
		return fmt.Errorf("%w: index built with model %q, configured %q", ErrManifestMismatch, m.Model, model)
	}
	if m.Dimension != dimension {
		return fmt.Errorf("%w: index dimension %d, configured %d", ErrManifestMismatch, m.Dimension, dimension)
	}
	return nil
}
