// Package discovery locates candidate system-map files under a project
// root.
package discovery

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mapaudit/mapaudit/internal/domain"
)

// MapSuffix is the naming convention for system-map documents. The root
// manifest conventionally lives at root.system-map.json; the parser tells
// the two shapes apart by content, not by name.
const MapSuffix = ".system-map.json"

// Built-in directories never worth descending into.
var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"bin":          true,
	".mapaudit":    true,
}

// Walker implements domain.MapDiscoverer by walking the filesystem. Unlike
// filepath.WalkDir it follows directory symlinks, bounded by a set of
// resolved paths so link cycles terminate.
type Walker struct{}

func New() *Walker { return &Walker{} }

// Discover returns the project-relative paths of all map candidates,
// sorted for deterministic downstream ordering. No matches is a valid
// empty result, not an error.
func (w *Walker) Discover(ctx context.Context, projectRoot string, scanning domain.ScanningConfig) ([]string, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}

	visited := make(map[string]bool)
	var found []string
	if err := w.walk(ctx, absRoot, absRoot, scanning, visited, &found); err != nil {
		return nil, err
	}
	sort.Strings(found)
	return found, nil
}

func (w *Walker) walk(ctx context.Context, root, dir string, scanning domain.ScanningConfig, visited map[string]bool, found *[]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if visited[resolved] {
		return nil
	}
	visited[resolved] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		if dir == root {
			return err // unreadable root is an infrastructure fault
		}
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(dir, name)
		rel, _ := filepath.Rel(root, full)
		rel = filepath.ToSlash(rel)

		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(full); err == nil && info.IsDir() {
				isDir = true
			}
		}

		if isDir {
			if skipDirs[name] || Excluded(rel+"/", scanning.ExcludePatterns) {
				continue
			}
			if err := w.walk(ctx, root, full, scanning, visited, found); err != nil {
				return err
			}
			continue
		}

		if !strings.HasSuffix(name, MapSuffix) {
			continue
		}
		if Excluded(rel, scanning.ExcludePatterns) || !included(rel, scanning.IncludePatterns) {
			continue
		}
		*found = append(*found, rel)
	}
	return nil
}

// Excluded reports whether a project-relative path matches any exclude
// glob. Patterns match against the full relative path, any path prefix,
// and the base name, which covers the common "**-free" glob spellings.
func Excluded(rel string, patterns []string) bool {
	return matchesAny(rel, patterns)
}

func included(rel string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(rel, patterns)
}

func matchesAny(rel string, patterns []string) bool {
	rel = strings.TrimSuffix(rel, "/")
	base := filepath.Base(rel)
	for _, pattern := range patterns {
		pattern = strings.TrimSuffix(strings.TrimPrefix(pattern, "./"), "/")
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		// Directory patterns exclude everything beneath them.
		if !strings.ContainsAny(pattern, "*?[") && (rel == pattern || strings.HasPrefix(rel+"/", pattern+"/")) {
			return true
		}
	}
	return false
}
