package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mapaudit/mapaudit/internal/domain"
)

const fileName = ".mapaudit.yaml"

// YAMLLoader implements domain.ConfigLoader by reading .mapaudit.yaml from
// the project root. The file is one overlay layer: it only ever overrides
// keys it sets, with built-in defaults underneath and CLI flags on top.
type YAMLLoader struct{}

func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads the config file layer. A missing file yields an empty overlay.
func (l *YAMLLoader) Load(projectRoot string) (domain.ConfigOverlay, error) {
	data, err := os.ReadFile(filepath.Join(projectRoot, fileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ConfigOverlay{}, nil
		}
		return domain.ConfigOverlay{}, err
	}

	var overlay domain.ConfigOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return domain.ConfigOverlay{}, fmt.Errorf("parsing %s: %w", fileName, err)
	}
	return overlay, nil
}

// Resolve layers default <- file <- overrides and validates the result.
func Resolve(loader domain.ConfigLoader, projectRoot string, overrides domain.ConfigOverlay) (domain.AuditConfig, error) {
	cfg := domain.DefaultConfig()

	fileLayer, err := loader.Load(projectRoot)
	if err != nil {
		return domain.AuditConfig{}, err
	}
	cfg = domain.Merge(cfg, fileLayer)
	cfg = domain.Merge(cfg, overrides)

	if err := cfg.Validate(); err != nil {
		return domain.AuditConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
