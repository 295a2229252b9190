// Package registry locates GGUF model files for the in-process backend.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"beliefd/internal/common/fsutil"
)

// ErrNoModel is returned when no GGUF file matches.
var ErrNoModel = errors.New("registry: no matching gguf model")

// Model is a GGUF file on disk.
type Model struct {
	// ID is the filename including extension.
	ID   string
	Path string
}

// LoadDir scans a directory for *.gguf files, sorted by filename.
func LoadDir(dir string) ([]Model, error) {
	abs, err := fsutil.ResolvePath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		models = append(models, Model{ID: name, Path: filepath.Join(abs, name)})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// Resolve returns the model file for path. A file path is returned as is.
// For a directory, the GGUF whose filename contains the last path element
// of name wins (case-insensitive); a directory holding exactly one GGUF
// resolves to it regardless of name.
func Resolve(path, name string) (string, error) {
	abs, err := fsutil.ResolvePath(path)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat model path: %w", err)
	}
	if !fi.IsDir() {
		return abs, nil
	}
	models, err := LoadDir(abs)
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoModel, abs)
	}
	if needle := strings.ToLower(filepath.Base(strings.TrimSpace(name))); needle != "" && needle != "." {
		for _, m := range models {
			if strings.Contains(strings.ToLower(m.ID), needle) {
				return m.Path, nil
			}
		}
	}
	if len(models) == 1 {
		return models[0].Path, nil
	}
	return "", fmt.Errorf("%w for %q in %s (%d candidates)", ErrNoModel, name, abs, len(models))
}
