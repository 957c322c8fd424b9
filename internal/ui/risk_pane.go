package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/routewatch/internal/models"
)

const maxListedEvents = 8

// getRiskStyle returns the style for a risk level
func getRiskStyle(level models.RiskLevel) lipgloss.Style {
	switch level {
	case models.RiskSevere:
		return alertExtremeStyle
	case models.RiskHigh:
		return alertSevereStyle
	case models.RiskMedium:
		return alertModerateStyle
	default:
		return alertMinorStyle
	}
}

func (m Model) renderRiskPane() string {
	a := m.analysis
	var lines []string

	if len(a.RiskEvents) == 0 {
		lines = append(lines, successStyle.Render("✓ No weather hazards along the route"))
	} else {
		events := append([]models.RiskEvent(nil), a.RiskEvents...)
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].Severity > events[j].Severity
		})
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%d risk events", len(events))))
		for i, ev := range events {
			if i == maxListedEvents {
				lines = append(lines, mutedStyle.Render(fmt.Sprintf("  … %d more", len(events)-maxListedEvents)))
				break
			}
			lines = append(lines,
				getRiskStyle(ev.Level).Render(fmt.Sprintf("  %-6s %-10s sev %d", strings.ToUpper(string(ev.Level)), ev.Category, ev.Severity))+
					mutedStyle.Render(fmt.Sprintf("  #%d %s", ev.WaypointIndex, ev.Timeframe.Format("Jan 2 15:04Z"))),
				"    "+ev.Description,
			)
		}
	}

	if len(a.Recommendations) > 0 {
		lines = append(lines, "", labelStyle.Render("Recommendations"))
		for _, r := range a.Recommendations {
			lines = append(lines, "  • "+r)
		}
	}
	if len(a.AlternativeActions) > 0 {
		lines = append(lines, "", labelStyle.Render("Alternative actions"))
		for _, r := range a.AlternativeActions {
			lines = append(lines, "  • "+r)
		}
	}

	lines = append(lines, "", labelStyle.Render("Advisories"), renderAdvisories(a.Advisories))
	return strings.Join(lines, "\n")
}
