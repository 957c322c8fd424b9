package ui

import (
	"fmt"
	"strings"
)

func (m Model) renderRoutePane() string {
	a := m.analysis
	var lines []string

	summary := fmt.Sprintf("%s route • %.0f nm • %s", a.RouteType, a.TotalDistance, formatHours(a.RouteDuration))
	if a.Destination != nil {
		summary += " • to " + a.Destination.Name
		if a.Destination.Locode != "" {
			summary += " (" + a.Destination.Locode + ")"
		}
	}
	lines = append(lines, valueStyle.Render(summary))

	if ws := a.WeatherSummary; ws != nil && ws.ObservedWaypoints > 0 {
		w := fmt.Sprintf("Wind avg %.0f kt, max %.0f kt (%s)", ws.AverageWindSpeed, ws.MaxWindSpeed, ws.WindTrend)
		if ws.MaxWaveHeight != nil {
			w += fmt.Sprintf(" • Waves max %.1f m", *ws.MaxWaveHeight)
		}
		if ws.MinVisibility != nil {
			w += fmt.Sprintf(" • Vis min %.0f km", *ws.MinVisibility)
		}
		lines = append(lines, mutedStyle.Render(w))
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("Forecasts for %d of %d waypoints from %s",
			ws.ObservedWaypoints, ws.TotalWaypoints, strings.Join(ws.Sources, ", "))))
	} else {
		lines = append(lines, mutedStyle.Render("No weather data available for this route"))
	}

	lines = append(lines, "", m.waypointList.View())
	return strings.Join(lines, "\n")
}
