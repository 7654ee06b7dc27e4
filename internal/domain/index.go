package domain

import (
	"path"
	"sort"
	"strings"
)

// Index is the queryable snapshot of the real project: every existing file
// path plus every route-registration found by the syntactic scan. It is
// built once, frozen, and shared read-only by all validators for the
// duration of one run; nothing may write to it after construction.
type Index struct {
	Root       string
	Files      map[string]struct{}
	Routes     map[string][]string
	ScanIssues []Issue
}

// NewIndex builds a frozen Index from the scan outputs. Route keys are
// normalized so lookups are insensitive to method casing and duplicate
// slashes in the declared documents.
func NewIndex(root string, files []string, routes map[string][]string, scanIssues []Issue) *Index {
	fileSet := make(map[string]struct{}, len(files))
	for _, f := range files {
		fileSet[NormalizePath(f)] = struct{}{}
	}
	normalized := make(map[string][]string, len(routes))
	for key, sources := range routes {
		normalized[NormalizeRouteKey(key)] = sources
	}
	return &Index{
		Root:       root,
		Files:      fileSet,
		Routes:     normalized,
		ScanIssues: scanIssues,
	}
}

// HasFile reports whether the given project-relative path exists.
func (ix *Index) HasFile(relPath string) bool {
	_, ok := ix.Files[NormalizePath(relPath)]
	return ok
}

// HandlersFor returns the source files registering a handler for the
// declared route key. Matching is structural: a templated segment (":id",
// "{id}") matches any single concrete or templated segment, so declared
// and registered routes agree even when parameter names differ.
func (ix *Index) HandlersFor(declaredKey string) []string {
	key := NormalizeRouteKey(declaredKey)
	if sources, ok := ix.Routes[key]; ok {
		return sources
	}

	method, declPath, ok := SplitRouteKey(key)
	if !ok {
		return nil
	}
	// Sorted iteration keeps the chosen match stable when several
	// registered routes are structurally equivalent.
	registered := make([]string, 0, len(ix.Routes))
	for k := range ix.Routes {
		registered = append(registered, k)
	}
	sort.Strings(registered)
	for _, reg := range registered {
		regMethod, regPath, ok := SplitRouteKey(reg)
		if !ok || regMethod != method {
			continue
		}
		if routePathsMatch(declPath, regPath) {
			return ix.Routes[reg]
		}
	}
	return nil
}

// NormalizePath converts a declared file path to the index's canonical
// form: slash-separated, cleaned, without a leading "./".
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(path.Clean(p), "./")
}

// SplitRouteKey splits a "METHOD /path" key into its parts.
func SplitRouteKey(key string) (method, routePath string, ok bool) {
	parts := strings.SplitN(key, " ", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// NormalizeRouteKey canonicalizes a "METHOD path" key: method uppercased,
// path cleaned with a guaranteed leading slash and no trailing slash.
func NormalizeRouteKey(key string) string {
	method, routePath, ok := SplitRouteKey(strings.TrimSpace(key))
	if !ok {
		return strings.TrimSpace(key)
	}
	routePath = path.Clean("/" + strings.Trim(routePath, "/"))
	return strings.ToUpper(method) + " " + routePath
}

func isTemplateSegment(seg string) bool {
	return strings.HasPrefix(seg, ":") ||
		(strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")) ||
		strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]")
}

// routePathsMatch compares two route paths segment by segment. Template
// segments match any single segment regardless of parameter name.
func routePathsMatch(a, b string) bool {
	as := strings.Split(strings.Trim(a, "/"), "/")
	bs := strings.Split(strings.Trim(b, "/"), "/")
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if isTemplateSegment(as[i]) || isTemplateSegment(bs[i]) {
			continue
		}
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
