package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/ngmaloney/routewatch/internal/models"
)

var compassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// cardinal converts degrees to an eight-point compass direction
func cardinal(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return compassPoints[int(math.Round(deg/45))%8]
}

func formatPosition(lat, lng float64) string {
	ns, ew := "N", "E"
	if lat < 0 {
		ns = "S"
	}
	if lng < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.2f°%s %.2f°%s", math.Abs(lat), ns, math.Abs(lng), ew)
}

// formatHours renders a duration in hours as "1d 4h" or "6h 30m"
func formatHours(h float64) string {
	if h <= 0 {
		return "0h"
	}
	total := int(math.Round(h * 60))
	days, hours, mins := total/(24*60), (total/60)%24, total%60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case mins > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dh", hours)
	}
}

// formatObservation summarizes a forecast on one line
func formatObservation(obs *models.WeatherObservation) string {
	if obs == nil {
		return "No forecast"
	}

	var parts []string
	wind := fmt.Sprintf("Wind %.0f kt", obs.WindSpeed)
	if !obs.DirectionUnknown {
		wind += " " + cardinal(obs.WindDirection)
	}
	if obs.WindGust != nil {
		wind += fmt.Sprintf(", gusts %.0f", *obs.WindGust)
	}
	parts = append(parts, wind)

	if obs.WaveHeight != nil {
		parts = append(parts, fmt.Sprintf("Waves %.1f m", *obs.WaveHeight))
	}
	if obs.Visibility != nil {
		parts = append(parts, fmt.Sprintf("Vis %.0f km", *obs.Visibility))
	}
	if obs.Precipitation != nil && *obs.Precipitation > 0 {
		parts = append(parts, fmt.Sprintf("Rain %.1f mm/h", *obs.Precipitation))
	}
	if obs.Synthetic {
		parts = append(parts, "(synthetic)")
	}
	return strings.Join(parts, " • ")
}
