package validate

import (
	"fmt"
	"strings"

	"github.com/mapaudit/mapaudit/internal/domain"
)

// API checks that every declared endpoint has a registered handler in the
// index and that the handler lives where the map says it does. Matching is
// structural over templated path segments, never literal string equality.
func API(m *domain.SystemMap, ix *domain.Index, cfg domain.AuditConfig) []domain.Issue {
	var issues []domain.Issue
	for _, key := range sortedKeys(m.APIEndpoints) {
		declaredFile := m.APIEndpoints[key]
		pointer := "/apiEndpoints/" + key

		if _, _, ok := domain.SplitRouteKey(strings.TrimSpace(key)); !ok {
			issues = append(issues, domain.Issue{
				Kind:       domain.KindStructureInvalid,
				Severity:   domain.SeverityWarning,
				File:       m.File,
				Pointer:    pointer,
				Message:    fmt.Sprintf("endpoint key %q is not of the form \"METHOD /path\"", key),
				Suggestion: `use a key like "GET /api/users/:id"`,
			})
			continue
		}

		handlers := ix.HandlersFor(key)
		if len(handlers) == 0 {
			issues = append(issues, domain.Issue{
				Kind:       domain.KindEndpointNotHandled,
				Severity:   domain.SeverityError,
				File:       m.File,
				Pointer:    pointer,
				Message:    fmt.Sprintf("no handler registration found for %q", key),
				Suggestion: fmt.Sprintf("register the route in %s or remove the declaration", declaredFile),
			})
			continue
		}

		if declaredFile != "" && !handlerFileMatches(declaredFile, handlers) {
			issues = append(issues, domain.Issue{
				Kind:     domain.KindHandlerFileMismatch,
				Severity: domain.SeverityWarning,
				File:     m.File,
				Pointer:  pointer,
				Message: fmt.Sprintf("%q is handled in %s, not in declared %s",
					key, strings.Join(handlers, ", "), declaredFile),
				Suggestion: fmt.Sprintf("update the declaration to %s", handlers[0]),
			})
		}
	}
	return issues
}

// handlerFileMatches accepts either a full project-relative path or a bare
// file name in the declaration; maps commonly declare just "routes.ts".
func handlerFileMatches(declared string, handlers []string) bool {
	declared = domain.NormalizePath(declared)
	for _, h := range handlers {
		h = domain.NormalizePath(h)
		if h == declared || strings.HasSuffix(h, "/"+declared) {
			return true
		}
	}
	return false
}
