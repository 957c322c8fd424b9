package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/ngmaloney/routewatch/internal/models"
)

// waypointItem wraps a Waypoint for use in a list
type waypointItem struct {
	wp models.Waypoint
}

// FilterValue implements list.Item
func (w waypointItem) FilterValue() string {
	return w.wp.MarineZone
}

// Title implements list.DefaultItem
func (w waypointItem) Title() string {
	title := fmt.Sprintf("#%d  %s  %s  %.0f nm",
		w.wp.Index,
		w.wp.EstimatedTime.Format("Jan 2 15:04Z"),
		formatPosition(w.wp.Latitude, w.wp.Longitude),
		w.wp.DistanceFromStart)
	if w.wp.MarineZone != "" {
		title += "  " + w.wp.MarineZone
	}
	return title
}

// Description implements list.DefaultItem
func (w waypointItem) Description() string {
	return formatObservation(w.wp.Weather)
}

// createWaypointList creates a list.Model from the projected route
func createWaypointList(waypoints []models.Waypoint, width, height int) list.Model {
	items := make([]list.Item, len(waypoints))
	for i, wp := range waypoints {
		items[i] = waypointItem{wp: wp}
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Projected Waypoints"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	return l
}
