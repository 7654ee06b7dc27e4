package domain

import (
	"sort"
	"time"
)

// SystemMap is one parsed system-map document describing a single
// application domain: its components, API endpoints and database tables.
type SystemMap struct {
	Name         string            `json:"name"`
	LastUpdated  string            `json:"last_updated,omitempty"`
	Components   map[string]string `json:"components,omitempty"`
	APIEndpoints map[string]string `json:"api_endpoints,omitempty"`
	Database     map[string]string `json:"database,omitempty"`
	Flows        map[string]Flow   `json:"flows,omitempty"`

	// File is the map's source path relative to the project root.
	File string `json:"file"`
}

// Flow is a declared user flow whose steps reference components and
// endpoints of the same map.
type Flow struct {
	Description string     `json:"description,omitempty"`
	Steps       []FlowStep `json:"steps"`
}

type FlowStep struct {
	Component string `json:"component,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
}

// EntryCount returns the total number of declared entries across the three
// reference mappings.
func (m *SystemMap) EntryCount() int {
	return len(m.Components) + len(m.APIEndpoints) + len(m.Database)
}

// RootManifest is the optional top-level document registering every
// domain's system-map file.
type RootManifest struct {
	AppName string               `json:"app_name"`
	Version string               `json:"version"`
	Domains map[string]DomainRef `json:"domains"`

	File string `json:"file"`
}

// DomainRef points a domain name at its system-map file.
type DomainRef struct {
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`
}

// Issue severities, ordered from most to least severe.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Issue kinds. The set is closed: the parser and validators only ever emit
// these values, and reporters may rely on that.
const (
	KindParseError           = "parse-error"
	KindStructureInvalid     = "structure-invalid"
	KindDuplicateKey         = "duplicate-key"
	KindComponentNotFound    = "component-not-found"
	KindExtensionMismatch    = "extension-mismatch"
	KindEndpointNotHandled   = "endpoint-not-handled"
	KindHandlerFileMismatch  = "handler-file-mismatch"
	KindNameMismatch         = "name-mismatch"
	KindFlowReferenceInvalid = "flow-reference-invalid"
	KindDomainNotFound       = "domain-not-found"
	KindScanSkipped          = "scan-skipped"
	KindNoSystemMaps         = "no-system-maps-found"
	KindAuditTimeout         = "audit-timeout"
	KindMapTooLarge          = "map-too-large"
)

// Issue is one discrete finding. Issues are immutable once created; they
// are only ever collected, never mutated after emission.
type Issue struct {
	Kind       string `json:"kind"`
	Severity   string `json:"severity"`
	File       string `json:"file,omitempty"`
	Pointer    string `json:"pointer,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// severityRank orders severities for aggregation; lower sorts first.
var severityRank = map[string]int{
	SeverityError:   0,
	SeverityWarning: 1,
	SeverityInfo:    2,
}

// AuditResult is the aggregated output of one run.
type AuditResult struct {
	Issues     []Issue       `json:"issues"`
	Errors     int           `json:"errors"`
	Warnings   int           `json:"warnings"`
	Infos      int           `json:"infos"`
	MapsTotal  int           `json:"maps_total"`
	Passed     bool          `json:"passed"`
	Duration   time.Duration `json:"duration_ns"`
	Timestamp  time.Time     `json:"timestamp"`
	CommitHash string        `json:"commit_hash,omitempty"`
}

// Aggregate merges issue lists from the parser and the validators into one
// well-formed AuditResult. Ordering is deterministic: severity first, then
// source file, then original emission order. Aggregate is total: any input,
// including zero maps, yields a valid result.
func Aggregate(mapsTotal int, issueLists ...[]Issue) *AuditResult {
	var all []Issue
	for _, list := range issueLists {
		all = append(all, list...)
	}

	if mapsTotal == 0 {
		all = append(all, Issue{
			Kind:       KindNoSystemMaps,
			Severity:   SeverityWarning,
			Message:    "no system-map documents found",
			Suggestion: "create a <domain>.system-map.json describing the domain's components and endpoints",
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if severityRank[all[i].Severity] != severityRank[all[j].Severity] {
			return severityRank[all[i].Severity] < severityRank[all[j].Severity]
		}
		return all[i].File < all[j].File
	})

	result := &AuditResult{
		Issues:    all,
		MapsTotal: mapsTotal,
		Timestamp: time.Now(),
	}
	for _, issue := range all {
		switch issue.Severity {
		case SeverityError:
			result.Errors++
		case SeverityWarning:
			result.Warnings++
		default:
			result.Infos++
		}
	}
	result.Passed = result.Errors == 0
	return result
}
