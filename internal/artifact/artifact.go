// Package artifact persists pipeline entities as JSON, one directory per run.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names inside a run directory
const (
	TranscriptFile     = "transcript.json"
	AcousticEventsFile = "acoustic_events.json"
	SemanticEventsFile = "semantic_events.json"
	CorrelatedFile     = "correlated_events.json"
	ClipWindowsFile    = "clip_windows.json"
	ReportFile         = "report.json"
)

// WriteJSON writes v as indented JSON, replacing path atomically
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadJSON decodes the JSON file at path into a T
func ReadJSON[T any](path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return v, nil
}

// Bundle is the artifact directory of one run
type Bundle struct {
	dir string
}

// NewBundle creates <root>/<runID>
func NewBundle(root, runID string) (*Bundle, error) {
	dir := filepath.Join(root, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	return &Bundle{dir: dir}, nil
}

// Dir returns the run directory
func (b *Bundle) Dir() string {
	return b.dir
}

// Path returns the location of name inside the run directory
func (b *Bundle) Path(name string) string {
	return filepath.Join(b.dir, name)
}

// Write stores v under name
func (b *Bundle) Write(name string, v any) error {
	return WriteJSON(b.Path(name), v)
}
