// Package index builds the codebase snapshot the validators check against:
// the set of files that exist plus the routes their source registers.
//
// Route detection is a syntactic scan over call-shaped registration
// patterns. Dynamically constructed routes (paths built at runtime) are a
// known blind spot of this approach and are not detected.
package index

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mapaudit/mapaudit/internal/adapters/outbound/discovery"
	"github.com/mapaudit/mapaudit/internal/domain"
)

var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"build":        true,
	"bin":          true,
	".mapaudit":    true,
}

// Registration call shapes the scanner recognizes. Submatch 1 is the
// method (or a "METHOD /path" pair for the Go 1.22 mux form), submatch 2
// the path.
var (
	expressPattern = regexp.MustCompile("(?m)\\b(?:app|router|server|api)\\.(get|post|put|patch|delete|options|head|all)\\s*\\(\\s*['\"`]([^'\"`]+)['\"`]")
	nestPattern    = regexp.MustCompile("(?m)@(Get|Post|Put|Patch|Delete|Options|Head)\\s*\\(\\s*(?:['\"`]([^'\"`]*)['\"`])?\\s*\\)")
	goMuxPattern   = regexp.MustCompile(`(?m)\.(?:HandleFunc|Handle)\s*\(\s*"((?:GET|POST|PUT|PATCH|DELETE|OPTIONS|HEAD)\s+[^"]+)"`)
)

// allMethods expands app.all(...) registrations.
var allMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

const binaryProbeSize = 8 * 1024

// Builder implements domain.IndexBuilder.
type Builder struct {
	cache  domain.IndexCache // nil disables caching
	logger *zap.Logger
}

func New(cache domain.IndexCache, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{cache: cache, logger: logger}
}

// Build walks the project once, collecting every existing file for O(1)
// existence lookups and scanning source files for route registrations.
// Unreadable or binary files are skipped with a warning issue; only a
// failure to read the root itself is an error.
func (b *Builder) Build(ctx context.Context, projectRoot string, scanning domain.ScanningConfig) (*domain.Index, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, err
	}
	if _, err := os.ReadDir(absRoot); err != nil {
		return nil, fmt.Errorf("reading project root: %w", err)
	}

	var files, scanTargets []string
	var walkIssues []domain.Issue
	err = filepath.WalkDir(absRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Only the root itself is fatal; anything unreadable below it
			// is skipped with a warning so one bad directory never kills
			// the whole index.
			if path == absRoot {
				return err
			}
			rel, _ := filepath.Rel(absRoot, path)
			walkIssues = append(walkIssues, scanSkip(filepath.ToSlash(rel), fmt.Sprintf("unreadable: %v", err)))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		rel, _ := filepath.Rel(absRoot, path)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if path != absRoot && (skipDirs[d.Name()] || discovery.Excluded(rel+"/", scanning.ExcludePatterns)) {
				return filepath.SkipDir
			}
			return nil
		}
		if discovery.Excluded(rel, scanning.ExcludePatterns) {
			return nil
		}
		files = append(files, rel)
		if hasExtension(rel, scanning.FileExtensions) {
			scanTargets = append(scanTargets, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking project root: %w", err)
	}
	sort.Strings(scanTargets)

	fingerprint := fingerprintFiles(absRoot, scanTargets)

	if b.cache != nil {
		if cached, err := b.cache.Load(absRoot); err == nil && cached != nil && cached.Fingerprint == fingerprint {
			b.logger.Debug("route scan served from cache",
				zap.String("root", absRoot), zap.Int("routes", len(cached.Routes)))
			return domain.NewIndex(absRoot, files, cached.Routes, append(walkIssues, cached.ScanIssues...)), nil
		}
	}

	routes := make(map[string][]string)
	var scanIssues []domain.Issue
	for _, rel := range scanTargets {
		if cerr := ctx.Err(); cerr != nil {
			break // partial index; the service reports the timeout
		}
		data, err := os.ReadFile(filepath.Join(absRoot, rel))
		if err != nil {
			scanIssues = append(scanIssues, scanSkip(rel, fmt.Sprintf("unreadable: %v", err)))
			continue
		}
		if looksBinary(data) {
			scanIssues = append(scanIssues, scanSkip(rel, "binary content"))
			continue
		}
		for _, key := range ScanRoutes(data) {
			routes[key] = appendUnique(routes[key], rel)
		}
	}

	if b.cache != nil && ctx.Err() == nil {
		if err := b.cache.Save(absRoot, &domain.CachedIndex{
			Fingerprint: fingerprint,
			Routes:      routes,
			ScanIssues:  scanIssues,
		}); err != nil {
			b.logger.Warn("saving index cache", zap.Error(err))
		}
	}

	b.logger.Debug("index built",
		zap.Int("files", len(files)),
		zap.Int("scanned", len(scanTargets)),
		zap.Int("routes", len(routes)))

	return domain.NewIndex(absRoot, files, routes, append(walkIssues, scanIssues...)), nil
}

// ScanRoutes extracts normalized "METHOD /path" keys from one source file.
func ScanRoutes(data []byte) []string {
	var keys []string
	add := func(method, path string) {
		if path == "" {
			path = "/"
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		keys = append(keys, domain.NormalizeRouteKey(strings.ToUpper(method)+" "+path))
	}

	for _, m := range expressPattern.FindAllSubmatch(data, -1) {
		method, path := string(m[1]), string(m[2])
		if strings.EqualFold(method, "all") {
			for _, each := range allMethods {
				add(each, path)
			}
			continue
		}
		add(method, path)
	}
	for _, m := range nestPattern.FindAllSubmatch(data, -1) {
		add(string(m[1]), string(m[2]))
	}
	for _, m := range goMuxPattern.FindAllSubmatch(data, -1) {
		keys = append(keys, domain.NormalizeRouteKey(string(m[1])))
	}
	return keys
}

// fingerprintFiles hashes the scan targets' path, size and mtime so cached
// route scans survive between unchanged runs.
func fingerprintFiles(absRoot string, scanTargets []string) string {
	h := sha256.New()
	for _, rel := range scanTargets {
		info, err := os.Stat(filepath.Join(absRoot, rel))
		if err != nil {
			continue
		}
		fmt.Fprintf(h, "%s|%d|%d\n", rel, info.Size(), info.ModTime().UnixNano())
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func hasExtension(rel string, extensions []string) bool {
	ext := filepath.Ext(rel)
	for _, e := range extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func looksBinary(data []byte) bool {
	probe := data
	if len(probe) > binaryProbeSize {
		probe = probe[:binaryProbeSize]
	}
	return bytes.IndexByte(probe, 0) >= 0
}

func scanSkip(rel, reason string) domain.Issue {
	return domain.Issue{
		Kind:     domain.KindScanSkipped,
		Severity: domain.SeverityWarning,
		File:     rel,
		Message:  "skipped during route scan: " + reason,
	}
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
