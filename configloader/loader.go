// Package configloader loads YAML configuration files with an
// executable-relative fallback for packaged deployments.
package configloader

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Loader is a unified configuration loader for YAML files.
type Loader struct {
	baseDir string
	cache   sync.Map
}

// NewLoader creates a new configuration loader rooted at baseDir.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		baseDir: baseDir,
	}
}

// Load loads a single YAML file and unmarshals it into target.
func (l *Loader) Load(subPath string, target any) error {
	data, err := l.ReadFileWithFallback(subPath)
	if err != nil {
		return errors.Wrapf(err, "read file %s", subPath)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return errors.Wrapf(err, "unmarshal YAML %s", subPath)
	}

	return nil
}

// LoadCached loads a configuration with caching.
// If the file is already cached, returns the cached value.
// Otherwise, calls factory to create the target and caches it.
func (l *Loader) LoadCached(subPath string, factory func() any) (any, error) {
	if cached, ok := l.cache.Load(subPath); ok {
		return cached, nil
	}

	target := factory()

	if err := l.Load(subPath, target); err != nil {
		return nil, err
	}

	l.cache.Store(subPath, target)

	return target, nil
}

// ReadFileWithFallback tries to read file from path relative to baseDir,
// then falls back to executable directory for production builds.
func (l *Loader) ReadFileWithFallback(path string) ([]byte, error) {
	absPath := filepath.Join(l.baseDir, path)
	data, err := os.ReadFile(absPath)
	if err == nil {
		return data, nil
	}

	// Fallback: try relative to executable directory
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}

	execDir := filepath.Dir(execPath)
	execAbsPath := filepath.Join(execDir, l.baseDir, path)

	return os.ReadFile(execAbsPath)
}

// ClearCache clears the configuration cache.
func (l *Loader) ClearCache() {
	l.cache = sync.Map{}
}
