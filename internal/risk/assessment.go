package risk

import (
	"fmt"
	"strings"

	"github.com/ngmaloney/routewatch/internal/models"
)

// OverallLevel maps the highest event severity onto a level.
func OverallLevel(events []models.RiskEvent) models.RiskLevel {
	highest := 0
	for _, e := range events {
		if e.Severity > highest {
			highest = e.Severity
		}
	}
	return LevelForSeverity(highest)
}

// LevelForSeverity maps a 1-10 severity onto a level.
func LevelForSeverity(s int) models.RiskLevel {
	switch {
	case s >= 8:
		return models.RiskSevere
	case s >= 6:
		return models.RiskHigh
	case s >= 3:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// Recommendations builds route-level advice from event counts and the
// aggregate level.
func Recommendations(events []models.RiskEvent, level models.RiskLevel) []string {
	var high, wind, waves, headWind, severe, navigation int
	for _, e := range events {
		if e.Level.AtLeast(models.RiskHigh) {
			high++
		}
		if e.Level == models.RiskSevere {
			severe++
		}
		switch e.Category {
		case models.CategoryWind:
			wind++
			if e.HeadWind {
				headWind++
			}
		case models.CategoryWaves:
			waves++
		case models.CategoryNavigation:
			navigation++
		}
	}

	var recs []string
	switch {
	case high == 0 && level == models.RiskLow:
		recs = append(recs, "Current route shows acceptable weather conditions")
	case high == 0:
		recs = append(recs, "Moderate weather expected - monitor forecasts along route")
	default:
		recs = append(recs, fmt.Sprintf("%d high-risk weather event(s) identified along route", high))
	}
	if wind > 2 {
		recs = append(recs, "Multiple wind events expected - consider speed adjustments")
	}
	if waves > 0 {
		recs = append(recs, "Rough seas forecast - secure all deck equipment")
	}
	if headWind > 0 {
		recs = append(recs, "Head winds will impact arrival time - inform port of possible delays")
	}
	if navigation > 0 {
		recs = append(recs, fmt.Sprintf("%d active marine advisory(ies) on route - review official bulletins", navigation))
	}
	if severe > 0 {
		recs = append(recs, "SEVERE weather conditions identified - consider route alteration or delay")
	}
	return recs
}

// AlternativeActions is the fixed menu of actions for a level.
func AlternativeActions(level models.RiskLevel) []string {
	switch level {
	case models.RiskSevere, models.RiskHigh:
		return []string{
			"Consider delaying departure by 12-24 hours",
			"Alter course to avoid high-risk areas",
			"Reduce speed to improve safety margins",
			"Seek shelter at nearest suitable port",
			"Monitor weather updates every 3 hours",
		}
	case models.RiskMedium:
		return []string{
			"Monitor weather conditions closely",
			"Prepare for possible course adjustments",
			"Ensure all safety equipment is ready",
			"Maintain communication with weather routing services",
		}
	default:
		return []string{}
	}
}

// AdvisoryEvents turns marine advisories into navigation events. Each
// advisory is reported once, at the first waypoint inside its zone while
// it is in effect.
func AdvisoryEvents(alerts []models.Alert, waypoints []models.Waypoint) []models.RiskEvent {
	var events []models.RiskEvent
	seen := make(map[string]bool)

	for i, wp := range waypoints {
		if wp.MarineZone == "" {
			continue
		}
		for _, a := range alerts {
			if seen[a.ID] || !strings.EqualFold(a.Zone, wp.MarineZone) {
				continue
			}
			if !a.IsMarine() || !a.ActiveAt(wp.EstimatedTime) {
				continue
			}
			seen[a.ID] = true

			sev := a.RiskSeverity()
			rec := strings.TrimSpace(a.Instruction)
			if rec == "" {
				rec = "Review the advisory and adjust the passage plan."
			}
			desc := a.Event
			if a.Headline != "" {
				desc = fmt.Sprintf("%s: %s", a.Event, a.Headline)
			}
			events = append(events, models.RiskEvent{
				Category:       models.CategoryNavigation,
				Level:          LevelForSeverity(sev),
				Severity:       sev,
				Description:    desc,
				Recommendation: rec,
				Location:       wp.Position(),
				Timeframe:      wp.EstimatedTime,
				WaypointIndex:  i,
			})
		}
	}
	return events
}
