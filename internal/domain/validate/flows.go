package validate

import (
	"fmt"

	"github.com/mapaudit/mapaudit/internal/domain"
)

// MaxMapEntries is the size guideline above which a map gets an
// informational notice. Large maps usually mean a domain that should be
// split.
const MaxMapEntries = 200

// Flows checks that every flow step references a component or endpoint
// declared in the same map.
func Flows(m *domain.SystemMap, ix *domain.Index, cfg domain.AuditConfig) []domain.Issue {
	var issues []domain.Issue
	for _, flowName := range sortedKeys(m.Flows) {
		flow := m.Flows[flowName]
		for i, step := range flow.Steps {
			pointer := fmt.Sprintf("/flows/%s/steps/%d", flowName, i)

			if step.Component != "" {
				if _, ok := m.Components[step.Component]; !ok {
					issues = append(issues, domain.Issue{
						Kind:       domain.KindFlowReferenceInvalid,
						Severity:   domain.SeverityWarning,
						File:       m.File,
						Pointer:    pointer,
						Message:    fmt.Sprintf("flow %q step %d references undeclared component %q", flowName, i, step.Component),
						Suggestion: "declare the component in this map or fix the step",
					})
				}
			}
			if step.Endpoint != "" {
				if !endpointDeclared(m, step.Endpoint) {
					issues = append(issues, domain.Issue{
						Kind:       domain.KindFlowReferenceInvalid,
						Severity:   domain.SeverityWarning,
						File:       m.File,
						Pointer:    pointer,
						Message:    fmt.Sprintf("flow %q step %d references undeclared endpoint %q", flowName, i, step.Endpoint),
						Suggestion: "declare the endpoint in this map or fix the step",
					})
				}
			}
		}
	}
	return issues
}

func endpointDeclared(m *domain.SystemMap, endpoint string) bool {
	want := domain.NormalizeRouteKey(endpoint)
	for key := range m.APIEndpoints {
		if domain.NormalizeRouteKey(key) == want {
			return true
		}
	}
	return false
}

// Size emits the informational notice for maps past the entry guideline.
func Size(m *domain.SystemMap) []domain.Issue {
	if m.EntryCount() <= MaxMapEntries {
		return nil
	}
	return []domain.Issue{{
		Kind:       domain.KindMapTooLarge,
		Severity:   domain.SeverityInfo,
		File:       m.File,
		Message:    fmt.Sprintf("map declares %d entries, above the %d-entry guideline", m.EntryCount(), MaxMapEntries),
		Suggestion: "consider splitting the domain into smaller maps",
	}}
}
