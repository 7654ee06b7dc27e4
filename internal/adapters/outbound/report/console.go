// Package report renders audit results. Reporters are pure projections of
// an AuditResult: they never mutate issues or derive new ones, and several
// reporters may run over the same result in one invocation.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mapaudit/mapaudit/internal/domain"
)

// ── warm palette, matching the rest of the tooling ──
var (
	accent  = lipgloss.Color("#D97706") // amber
	fg      = lipgloss.Color("#E8E6E3") // warm light gray
	dim     = lipgloss.Color("#6B7280") // muted gray
	faint   = lipgloss.Color("#3F3F46") // very dim
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	warning = lipgloss.Color("#F59E0B") // amber-yellow
	info    = lipgloss.Color("#8B949E") // soft blue-gray
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).Align(lipgloss.Center)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success).Bold(true)
	failStyle     = lipgloss.NewStyle().Foreground(danger).Bold(true)
	errorTagStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnTagStyle  = lipgloss.NewStyle().Foreground(warning).Bold(true)
	infoTagStyle  = lipgloss.NewStyle().Foreground(info)
	fileStyle     = lipgloss.NewStyle().Foreground(dim)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	hintStyle     = lipgloss.NewStyle().Foreground(dim).Italic(true)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// Console renders a styled terminal report.
type Console struct{}

func NewConsole() *Console { return &Console{} }

func (c *Console) Render(result *domain.AuditResult, cfg domain.ReportingConfig) string {
	var b strings.Builder

	verdict := passStyle.Render("PASSED")
	if !result.Passed {
		verdict = failStyle.Render("FAILED")
	}
	title := headerStyle.Render("mapaudit")
	subtitle := dimStyle.Render("System Map Consistency Audit")
	stats := fmt.Sprintf("%d maps · %s", result.MapsTotal, result.Duration.Round(1e6))
	if result.CommitHash != "" {
		stats += " · " + result.CommitHash[:minInt(8, len(result.CommitHash))]
	}

	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + verdict + "\n" + dimStyle.Render(stats)))
	b.WriteString("\n\n")

	issues := result.Issues
	if !cfg.Verbose {
		issues = withoutInfos(issues)
	}

	if len(issues) == 0 {
		b.WriteString("  " + passStyle.Render("No issues found.") + "\n")
		return b.String()
	}

	b.WriteString("  " + titleStyle.Render("Issues") + "  ")
	if result.Errors > 0 {
		b.WriteString(errorTagStyle.Render(fmt.Sprintf("%d errors", result.Errors)) + "  ")
	}
	if result.Warnings > 0 {
		b.WriteString(warnTagStyle.Render(fmt.Sprintf("%d warnings", result.Warnings)) + "  ")
	}
	if result.Infos > 0 {
		b.WriteString(infoTagStyle.Render(fmt.Sprintf("%d info", result.Infos)))
	}
	b.WriteString("\n\n")

	for _, issue := range issues {
		renderIssue(&b, issue, cfg.ShowSuggestions)
	}

	b.WriteString("\n  " + separatorLine + "\n")
	if !result.Passed {
		b.WriteString("  " + hintStyle.Render("Fix the errors above, then re-run mapaudit.") + "\n")
	}
	return b.String()
}

func renderIssue(b *strings.Builder, issue domain.Issue, showSuggestions bool) {
	tag := infoTagStyle.Render("info")
	switch issue.Severity {
	case domain.SeverityError:
		tag = errorTagStyle.Render("error")
	case domain.SeverityWarning:
		tag = warnTagStyle.Render("warn ")
	}

	location := issue.File
	if issue.Pointer != "" {
		location += faintStyle.Render(issue.Pointer)
	}

	b.WriteString(fmt.Sprintf("    %s  %s  %s\n", tag, dimStyle.Render("["+issue.Kind+"]"), issue.Message))
	if location != "" {
		b.WriteString("           " + fileStyle.Render(location) + "\n")
	}
	if showSuggestions && issue.Suggestion != "" {
		b.WriteString("           " + hintStyle.Render("→ "+issue.Suggestion) + "\n")
	}
}

func withoutInfos(issues []domain.Issue) []domain.Issue {
	out := make([]domain.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.Severity != domain.SeverityInfo {
			out = append(out, issue)
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
