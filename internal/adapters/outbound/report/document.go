package report

import (
	"fmt"
	"strings"

	"github.com/mapaudit/mapaudit/internal/domain"
)

// Document renders a Markdown report suitable for commit comments or
// audit archives. The by-file grouping is presentation only; the issues
// themselves come through untouched and in aggregate order.
type Document struct{}

func NewDocument() *Document { return &Document{} }

func (d *Document) Render(result *domain.AuditResult, cfg domain.ReportingConfig) string {
	var b strings.Builder

	b.WriteString("# System Map Audit\n\n")
	verdict := "**PASSED**"
	if !result.Passed {
		verdict = "**FAILED**"
	}
	fmt.Fprintf(&b, "%s — %d maps audited in %s\n\n", verdict, result.MapsTotal, result.Duration.Round(1e6))
	fmt.Fprintf(&b, "| Errors | Warnings | Info |\n|---|---|---|\n| %d | %d | %d |\n\n",
		result.Errors, result.Warnings, result.Infos)
	if result.CommitHash != "" {
		fmt.Fprintf(&b, "Commit: `%s`\n\n", result.CommitHash)
	}

	issues := result.Issues
	if !cfg.Verbose {
		issues = withoutInfos(issues)
	}
	if len(issues) == 0 {
		b.WriteString("No issues found.\n")
		return b.String()
	}

	// Group by source file, preserving aggregate order within each group.
	var order []string
	grouped := make(map[string][]domain.Issue)
	for _, issue := range issues {
		key := issue.File
		if key == "" {
			key = "(run)"
		}
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], issue)
	}

	for _, file := range order {
		fmt.Fprintf(&b, "## %s\n\n", file)
		for _, issue := range grouped[file] {
			fmt.Fprintf(&b, "- **%s** `%s` %s", issue.Severity, issue.Kind, issue.Message)
			if issue.Pointer != "" {
				fmt.Fprintf(&b, " (`%s`)", issue.Pointer)
			}
			b.WriteString("\n")
			if cfg.ShowSuggestions && issue.Suggestion != "" {
				fmt.Fprintf(&b, "  - suggestion: %s\n", issue.Suggestion)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ForFormat returns the reporter for a configured format name.
func ForFormat(format string) domain.Reporter {
	switch format {
	case domain.FormatStructured:
		return NewStructured()
	case domain.FormatDocument:
		return NewDocument()
	default:
		return NewConsole()
	}
}
