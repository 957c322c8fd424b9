package route

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ngmaloney/routewatch/internal/apperr"
)

// MaxHorizon is the forecast-availability ceiling shared by the weather
// providers.
const MaxHorizon = 240 * time.Hour

var (
	inDaysPattern   = regexp.MustCompile(`(?i)in\s+(\d+)\s+days?`)
	monthDayPattern = regexp.MustCompile(`(?i)([a-z]{3})[a-z]*\.?\s+(\d{1,2}),?\s*(\d{1,2}):(\d{2})`)
	etaPrefix       = regexp.MustCompile(`(?i)^\s*eta:?\s*`)
	parenthetical   = regexp.MustCompile(`\(.*?\)`)
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var textLayouts = []string{
	"Jan 2, 2006 15:04",
	"Jan 2 2006 15:04",
	"January 2, 2006 15:04",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006 15:04",
	"02-01-2006 15:04",
}

var yearlessLayouts = []string{
	"Jan 2, 15:04",
	"Jan 2 15:04",
	"January 2, 15:04",
}

// ParseETA interprets the free-text or ISO ETA reported for a vessel.
// Timestamps without a zone are taken as UTC.
func ParseETA(raw string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, apperr.Unresolvable("eta", errors.New("empty ETA"))
	}

	if t, ok := parseRelative(s, now); ok {
		return t, nil
	}

	if t, err := ParseTimestamp(s); err == nil {
		return t, nil
	}

	cleaned := strings.TrimSpace(parenthetical.ReplaceAllString(etaPrefix.ReplaceAllString(s, ""), ""))
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if t, err := ParseTimestamp(cleaned); err == nil {
		return t, nil
	}
	for _, layout := range textLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return withYear(t, now), nil
		}
	}

	return time.Time{}, apperr.Unresolvable("eta", fmt.Errorf("unrecognized ETA format %q", raw))
}

// ParseTimestamp parses the ISO-8601 variants seen from providers.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("not an ISO-8601 timestamp: %q", s)
}

// parseRelative handles "Oct 16, 22:00 (in 19 days)": the day count is
// authoritative and the clock time is taken from the fragment.
func parseRelative(s string, now time.Time) (time.Time, bool) {
	m := inDaysPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	days, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}

	frag := monthDayPattern.FindStringSubmatch(s)
	if frag == nil {
		return time.Time{}, false
	}
	hour, _ := strconv.Atoi(frag[3])
	minute, _ := strconv.Atoi(frag[4])
	if hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	target := now.AddDate(0, 0, days)
	return time.Date(target.Year(), target.Month(), target.Day(), hour, minute, 0, 0, now.Location()), true
}

// withYear places a yearless date in the current year, or the next one if
// it would otherwise be more than 30 days in the past.
func withYear(t, now time.Time) time.Time {
	out := time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	if out.Before(now.AddDate(0, 0, -30)) {
		out = out.AddDate(1, 0, 0)
	}
	return out
}

// Horizon returns the forecast horizon for an analysis: whole ETA days,
// capped at MaxHorizon. A missing or past ETA gives MaxHorizon.
func Horizon(eta time.Time, now time.Time) time.Duration {
	if eta.IsZero() || !eta.After(now) {
		return MaxHorizon
	}
	days := math.Ceil(eta.Sub(now).Hours() / 24)
	h := time.Duration(days*24) * time.Hour
	if h > MaxHorizon {
		return MaxHorizon
	}
	return h
}
