package report

import (
	"encoding/json"

	"github.com/mapaudit/mapaudit/internal/domain"
)

// Structured renders the result as indented JSON for machine consumers
// (CI pipelines, editor integrations).
type Structured struct{}

func NewStructured() *Structured { return &Structured{} }

func (s *Structured) Render(result *domain.AuditResult, cfg domain.ReportingConfig) string {
	view := *result
	if !cfg.ShowSuggestions {
		stripped := make([]domain.Issue, len(view.Issues))
		for i, issue := range view.Issues {
			issue.Suggestion = ""
			stripped[i] = issue
		}
		view.Issues = stripped
	}

	data, err := json.MarshalIndent(&view, "", "  ")
	if err != nil {
		return `{"error": "failed to encode audit result"}`
	}
	return string(data) + "\n"
}
