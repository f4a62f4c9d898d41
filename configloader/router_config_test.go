package configloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/hrygo/intentgate/router"
)

func TestLoadRouterConfig_Defaults(t *testing.T) {
	loader := NewLoader(t.TempDir())

	cfg, err := LoadRouterConfig(loader, "")
	if err != nil {
		t.Fatalf("LoadRouterConfig: %v", err)
	}
	if cfg.ConfidenceThreshold != 0.85 {
		t.Errorf("expected default threshold 0.85, got %v", cfg.ConfidenceThreshold)
	}
	if len(cfg.Keywords[router.CategoryPolicy]) == 0 {
		t.Error("expected built-in policy vocabulary")
	}
}

func TestLoadRouterConfig_OverlayMergesIntoDefaults(t *testing.T) {
	dir := t.TempDir()
	overlay := `
confidence_threshold: 0.9
clarifier_terms:
  - regulation
  - statute
`
	if err := os.WriteFile(filepath.Join(dir, "router.yaml"), []byte(overlay), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadRouterConfig(NewLoader(dir), "router.yaml")
	if err != nil {
		t.Fatalf("LoadRouterConfig: %v", err)
	}
	if cfg.ConfidenceThreshold != 0.9 {
		t.Errorf("overlay threshold: expected 0.9, got %v", cfg.ConfidenceThreshold)
	}
	if len(cfg.ClarifierTerms) != 2 || cfg.ClarifierTerms[1] != "statute" {
		t.Errorf("overlay clarifier terms: got %v", cfg.ClarifierTerms)
	}
	// Untouched sections keep their defaults.
	if len(cfg.Keywords[router.CategoryPolicy]) == 0 {
		t.Error("defaults lost during overlay")
	}
}

func TestLoadRouterConfig_RejectsInvalidOverlay(t *testing.T) {
	dir := t.TempDir()
	overlay := `
confidence_threshold: 7
`
	if err := os.WriteFile(filepath.Join(dir, "router.yaml"), []byte(overlay), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadRouterConfig(NewLoader(dir), "router.yaml")
	if !errors.Is(err, router.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestLoadRouterConfig_MissingFile(t *testing.T) {
	_, err := LoadRouterConfig(NewLoader(t.TempDir()), "absent.yaml")
	if err == nil {
		t.Error("expected error for missing overlay file")
	}
}
