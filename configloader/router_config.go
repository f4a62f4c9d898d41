package configloader

import (
	"log/slog"

	"github.com/hrygo/intentgate/router"
)

// LoadRouterConfig returns the router configuration. The built-in
// defaults are used as the base; when subPath is non-empty, the YAML
// file overlays them (scalar fields replace, map keys merge). The
// returned config has already passed validation.
func LoadRouterConfig(loader *Loader, subPath string) (router.Config, error) {
	cfg := router.DefaultConfig()

	if subPath != "" {
		if err := loader.Load(subPath, &cfg); err != nil {
			return router.Config{}, err
		}
		slog.Info("router config overlay applied", "path", subPath)
	}

	if err := cfg.Validate(); err != nil {
		return router.Config{}, err
	}
	return cfg, nil
}
