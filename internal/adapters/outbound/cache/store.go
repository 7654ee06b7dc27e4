package cache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mapaudit/mapaudit/internal/domain"
)

// Store is a file-based implementation of domain.IndexCache. The cached
// route scan lives inside the audited project under .mapaudit/cache.
type Store struct{}

func New() *Store { return &Store{} }

// Load reads a cached index snapshot. Returns (nil, nil) if none exists.
func (s *Store) Load(projectRoot string) (*domain.CachedIndex, error) {
	data, err := os.ReadFile(cachePath(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // no cache is not an error
		}
		return nil, err
	}

	var cached domain.CachedIndex
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return &cached, nil
}

// Save writes the snapshot, creating directories as needed.
func (s *Store) Save(projectRoot string, cached *domain.CachedIndex) error {
	if err := os.MkdirAll(cacheDir(projectRoot), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(cachePath(projectRoot), data, 0644)
}

// Invalidate removes the cache file.
func (s *Store) Invalidate(projectRoot string) error {
	if err := os.Remove(cachePath(projectRoot)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func cacheDir(projectRoot string) string {
	return filepath.Join(projectRoot, ".mapaudit", "cache")
}

func cachePath(projectRoot string) string {
	return filepath.Join(cacheDir(projectRoot), "index.json")
}
