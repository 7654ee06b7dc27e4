package domain

import "context"

// MapDiscoverer locates candidate system-map files under a project root.
// Returning an empty slice is a valid, degenerate result, not an error.
type MapDiscoverer interface {
	Discover(ctx context.Context, projectRoot string, scanning ScanningConfig) ([]string, error)
}

// MapParser loads one discovered document. Malformed input never produces
// an error return; every read, syntax or shape failure is captured as an
// issue and the best-effort partial document is returned alongside.
// Exactly one of the two document pointers is non-nil unless the file was
// unreadable or syntactically broken beyond recovery.
type MapParser interface {
	Parse(path, projectRoot string) (*SystemMap, *RootManifest, []Issue)
}

// IndexBuilder constructs the ground-truth codebase snapshot. An error here
// is an infrastructure fault: the audit cannot meaningfully run without it.
type IndexBuilder interface {
	Build(ctx context.Context, projectRoot string, scanning ScanningConfig) (*Index, error)
}

// ConfigLoader reads the optional project config file layer.
type ConfigLoader interface {
	Load(projectRoot string) (ConfigOverlay, error)
}

// IndexCache stores a route-scan snapshot between runs.
type IndexCache interface {
	Load(projectRoot string) (*CachedIndex, error)
	Save(projectRoot string, cached *CachedIndex) error
	Invalidate(projectRoot string) error
}

// CachedIndex is the persistable portion of an Index plus the fingerprint
// of the file set it was built from.
type CachedIndex struct {
	Fingerprint string              `json:"fingerprint"`
	Routes      map[string][]string `json:"routes"`
	ScanIssues  []Issue             `json:"scan_issues,omitempty"`
}

// GitInfo reports version-control metadata for the audited project.
type GitInfo interface {
	IsGitRepo(projectRoot string) bool
	CommitHash(projectRoot string) (string, error)
}

// Reporter renders an AuditResult. Rendering is a pure projection: it must
// not mutate or re-derive issues.
type Reporter interface {
	Render(result *AuditResult, cfg ReportingConfig) string
}
