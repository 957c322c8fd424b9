package ui

import (
	"fmt"
	"strings"

	"github.com/ngmaloney/routewatch/internal/models"
)

func (m Model) renderRoutingPane() string {
	plan := m.analysis.Routing
	if plan == nil {
		return mutedStyle.Render("No routing plan available")
	}

	var lines []string
	lines = append(lines,
		labelStyle.Render("Strategy: ")+valueStyle.Render(strings.ReplaceAll(string(plan.Strategy), "_", " ")),
		plan.OverallAssessment,
		"",
		labelStyle.Render(fmt.Sprintf("  %-10s %8s %9s %7s %7s", "VARIANT", "DIST", "TIME", "SAFETY", "SCORE")),
	)

	alts := append([]models.RouteAlternative{plan.Primary}, plan.Alternatives...)
	for _, alt := range alts {
		marker := "  "
		style := valueStyle
		if alt.Variant == plan.Recommended {
			marker = "▶ "
			style = successStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s%-10s %6.0fnm %9s %7.1f %7.1f",
			marker, alt.Variant, alt.Distance, formatHours(alt.Duration), alt.SafetyScore, alt.Score)))
		if alt.Recommendation != "" {
			lines = append(lines, mutedStyle.Render("    "+alt.Recommendation))
		}
	}

	if len(plan.Obstacles) > 0 {
		lines = append(lines, "", labelStyle.Render(fmt.Sprintf("%d weather obstacles", len(plan.Obstacles))))
		for _, o := range plan.Obstacles {
			lines = append(lines, fmt.Sprintf("  %s sev %d at %s: %s",
				o.Type, o.Severity, formatPosition(o.Location.Lat, o.Location.Lng), strings.ReplaceAll(string(o.RecommendedAction), "_", " ")))
		}
	}
	return strings.Join(lines, "\n")
}
