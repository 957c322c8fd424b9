package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/routewatch/internal/models"
)

// getAlertStyle returns the appropriate style for an alert severity
func getAlertStyle(severity models.AlertSeverity) lipgloss.Style {
	switch severity {
	case models.SeverityExtreme:
		return alertExtremeStyle
	case models.SeveritySevere:
		return alertSevereStyle
	case models.SeverityModerate:
		return alertModerateStyle
	case models.SeverityMinor:
		return alertMinorStyle
	default:
		return valueStyle
	}
}

// renderAdvisories lists the marine advisories active along the route
func renderAdvisories(alerts []models.Alert) string {
	var marine []models.Alert
	for _, a := range alerts {
		if a.IsMarine() {
			marine = append(marine, a)
		}
	}
	if len(marine) == 0 {
		return successStyle.Render("✓ No marine advisories along the route")
	}

	var lines []string
	for _, a := range marine {
		lines = append(lines,
			getAlertStyle(a.Severity).Render(fmt.Sprintf("⚠  %s (%s)", a.Event, a.Zone)),
			fmt.Sprintf("   %s", a.Headline),
		)
		if !a.Expires.IsZero() {
			lines = append(lines, fmt.Sprintf("   Expires: %s", a.Expires.Format("Jan 2, 15:04Z")))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
