package validate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/fatih/camelcase"

	"github.com/mapaudit/mapaudit/internal/domain"
)

// References checks cross-file integrity between the root manifest and the
// parsed domain maps: every registered path must resolve to a parsed map,
// and that map's internal name must agree with the domain key it is
// registered under.
func References(manifest *domain.RootManifest, maps []*domain.SystemMap, cfg domain.AuditConfig) []domain.Issue {
	if manifest == nil {
		return nil
	}

	byFile := make(map[string]*domain.SystemMap, len(maps))
	for _, m := range maps {
		byFile[domain.NormalizePath(m.File)] = m
	}

	var issues []domain.Issue
	for _, name := range sortedKeys(manifest.Domains) {
		ref := manifest.Domains[name]
		pointer := "/domains/" + name

		target, ok := byFile[domain.NormalizePath(ref.Path)]
		if !ok {
			issues = append(issues, domain.Issue{
				Kind:       domain.KindDomainNotFound,
				Severity:   domain.SeverityError,
				File:       manifest.File,
				Pointer:    pointer,
				Message:    fmt.Sprintf("domain %q references %s, which was not discovered or failed to parse", name, ref.Path),
				Suggestion: fmt.Sprintf("create %s or remove the domain entry", ref.Path),
			})
			continue
		}

		if target.Name != "" && target.Name != name {
			issues = append(issues, domain.Issue{
				Kind:       domain.KindNameMismatch,
				Severity:   domain.SeverityWarning,
				File:       manifest.File,
				Pointer:    pointer,
				Message:    fmt.Sprintf("domain key %q does not match map name %q in %s", name, target.Name, ref.Path),
				Suggestion: nameSuggestion(name, target.Name),
			})
		}
	}
	return issues
}

// nameSuggestion proposes a rename. When the two names are the same words
// in different casings the canonical kebab form is offered; otherwise the
// map's own name wins, because the map file is closer to the code.
func nameSuggestion(key, mapName string) string {
	if canonicalName(key) == canonicalName(mapName) {
		return fmt.Sprintf("use the canonical form %q for both", canonicalName(mapName))
	}
	return fmt.Sprintf("rename the domain key to %q", mapName)
}

// canonicalName lowers a CamelCase, snake_case or kebab-case identifier to
// kebab-case for comparison.
func canonicalName(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	var words []string
	for _, f := range fields {
		for _, w := range camelcase.Split(f) {
			w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
			if w != "" {
				words = append(words, strings.ToLower(w))
			}
		}
	}
	return strings.Join(words, "-")
}
