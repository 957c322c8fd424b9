package models

import "time"

// AlertSeverity represents the severity level of a marine advisory
type AlertSeverity string

const (
	SeverityExtreme  AlertSeverity = "Extreme"
	SeveritySevere   AlertSeverity = "Severe"
	SeverityModerate AlertSeverity = "Moderate"
	SeverityMinor    AlertSeverity = "Minor"
	SeverityUnknown  AlertSeverity = "Unknown"
)

// Alert is an official marine advisory issued for a forecast zone
type Alert struct {
	ID          string        `json:"id"`
	Event       string        `json:"event"` // e.g., "Small Craft Advisory", "Gale Warning"
	Headline    string        `json:"headline"`
	Description string        `json:"description,omitempty"`
	Severity    AlertSeverity `json:"severity"`
	Onset       time.Time     `json:"onset"`
	Expires     time.Time     `json:"expires"`
	Zone        string        `json:"zone"`
	Instruction string        `json:"instruction,omitempty"`
}

// IsActive checks if an alert is currently in effect
func (a *Alert) IsActive() bool {
	return a.ActiveAt(time.Now())
}

// ActiveAt reports whether the alert is in effect at t. A zero Expires is
// treated as open-ended.
func (a *Alert) ActiveAt(t time.Time) bool {
	if t.Before(a.Onset) {
		return false
	}
	return a.Expires.IsZero() || t.Before(a.Expires)
}

var marineEvents = map[string]bool{
	"Small Craft Advisory":         true,
	"Gale Warning":                 true,
	"Storm Warning":                true,
	"Hurricane Force Wind Warning": true,
	"Special Marine Warning":       true,
	"Marine Weather Statement":     true,
	"Hazardous Seas Warning":       true,
	"Dense Fog Advisory":           true,
	"Hurricane Warning":            true,
	"Tropical Storm Warning":       true,
}

// IsMarine returns true if the alert is marine-related
func (a *Alert) IsMarine() bool {
	return marineEvents[a.Event]
}

// RiskSeverity maps the advisory severity onto the 1-10 risk scale.
func (a *Alert) RiskSeverity() int {
	switch a.Severity {
	case SeverityExtreme:
		return 9
	case SeveritySevere:
		return 7
	case SeverityModerate:
		return 5
	case SeverityMinor:
		return 3
	default:
		return 2
	}
}
