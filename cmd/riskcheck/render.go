package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"docrisk-backend/internal/risk"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	levelStyles = map[risk.Level]lipgloss.Style{
		risk.LevelHigh:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		risk.LevelMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F5A623")),
		risk.LevelLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("#7ED321")),
		risk.LevelUnscored: mutedStyle,
	}
)

func render(report risk.Report) string {
	score := "n/a"
	if report.AggregateScore != nil {
		score = fmt.Sprintf("%.1f / 10", *report.AggregateScore)
	}

	var head strings.Builder
	head.WriteString(titleStyle.Render(report.FileName))
	head.WriteString("\n")
	fmt.Fprintf(&head, "%s · %d page(s) · %s\n", report.DocumentTypeLabel, report.Pages, report.Format)
	fmt.Fprintf(&head, "Risk score: %s (%s)\n", score, report.ScoreStatus)
	head.WriteString(mutedStyle.Render(fmt.Sprintf("%d clauses · %d chunks · %d ms",
		report.Stats.Clauses, report.Stats.Chunks, report.ProcessingMs)))

	sections := []string{boxStyle.Render(head.String()), report.Summary}

	if len(report.Clauses) > 0 {
		var clauses strings.Builder
		for _, c := range report.Clauses {
			style, ok := levelStyles[c.RiskLevel]
			if !ok {
				style = mutedStyle
			}
			fmt.Fprintf(&clauses, "%s %s\n", style.Render(fmt.Sprintf("[%-8s]", c.RiskLevel)), c.Text)
			detail := c.Rationale
			if detail == "" {
				detail = c.Note
			}
			if detail != "" {
				fmt.Fprintf(&clauses, "           %s\n", mutedStyle.Render(detail))
			}
		}
		sections = append(sections, strings.TrimRight(clauses.String(), "\n"))
	}

	if len(report.Warnings) > 0 {
		var w strings.Builder
		w.WriteString(levelStyles[risk.LevelMedium].Render("Warnings"))
		for _, msg := range report.Warnings {
			w.WriteString("\n- " + msg)
		}
		sections = append(sections, w.String())
	}
	return strings.Join(sections, "\n\n")
}
