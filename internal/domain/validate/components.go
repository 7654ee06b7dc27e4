// Package validate holds the individual system-map validators. Every
// validator is pure with respect to its inputs: it reads the parsed map and
// the frozen index, emits issues, and keeps no state, so validators are
// safe to run concurrently across maps.
package validate

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/mapaudit/mapaudit/internal/domain"
)

// Components checks that every declared component file and database schema
// file actually exists in the index.
func Components(m *domain.SystemMap, ix *domain.Index, cfg domain.AuditConfig) []domain.Issue {
	var issues []domain.Issue
	issues = append(issues, checkFileRefs(m, ix, cfg, "components", m.Components)...)
	issues = append(issues, checkFileRefs(m, ix, cfg, "database", m.Database)...)
	return issues
}

func checkFileRefs(m *domain.SystemMap, ix *domain.Index, cfg domain.AuditConfig, section string, refs map[string]string) []domain.Issue {
	var issues []domain.Issue
	for _, name := range sortedKeys(refs) {
		declared := refs[name]
		pointer := "/" + section + "/" + name

		if !ix.HasFile(declared) {
			issues = append(issues, domain.Issue{
				Kind:       domain.KindComponentNotFound,
				Severity:   domain.SeverityError,
				File:       m.File,
				Pointer:    pointer,
				Message:    fmt.Sprintf("%q declares %s which does not exist", name, declared),
				Suggestion: fmt.Sprintf("create %s or update the declared path", declared),
			})
			continue
		}

		if ext := path.Ext(declared); !extensionAllowed(ext, cfg.Scanning.FileExtensions) {
			issues = append(issues, domain.Issue{
				Kind:       domain.KindExtensionMismatch,
				Severity:   domain.SeverityWarning,
				File:       m.File,
				Pointer:    pointer,
				Message:    fmt.Sprintf("%q points at %s, whose extension %q is outside the configured set", name, declared, ext),
				Suggestion: "add the extension to scanning.file_extensions or point at a source file",
			})
		}
	}
	return issues
}

func extensionAllowed(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
