package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// StationarySpeed is the speed (knots) at or below which a vessel is
// treated as not underway.
const StationarySpeed = 1.0

// VesselState is a point-in-time snapshot of a vessel as reported by a
// vessel-lookup provider.
type VesselState struct {
	Name              string    `json:"name"`
	IMO               string    `json:"imo,omitempty"`
	MMSI              string    `json:"mmsi,omitempty"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	Course            float64   `json:"course"` // degrees, 0-360
	Speed             float64   `json:"speed"`  // knots
	Status            string    `json:"status,omitempty"`
	Destination       string    `json:"destination,omitempty"`
	DestinationLocode string    `json:"destination_locode,omitempty"`
	ETA               string    `json:"eta,omitempty"` // raw provider text
	LastPort          string    `json:"last_port,omitempty"`
	LastPortLocode    string    `json:"last_port_locode,omitempty"`
	UpdatedAt         time.Time `json:"updated_at,omitempty"`

	// PositionUnknown is set when the provider omitted coordinates.
	PositionUnknown bool `json:"-"`
}

// HasPosition reports whether the snapshot carries usable coordinates.
func (v *VesselState) HasPosition() bool {
	if v.PositionUnknown || math.IsNaN(v.Latitude) || math.IsNaN(v.Longitude) {
		return false
	}
	return v.Latitude >= -90 && v.Latitude <= 90 && v.Longitude >= -180 && v.Longitude <= 180
}

// IsStationary reports whether the vessel is effectively not underway.
func (v *VesselState) IsStationary() bool {
	return v.Speed <= StationarySpeed
}

// DestinationQuery returns the destination string to resolve, preferring
// the coded locator over free text.
func (v *VesselState) DestinationQuery() string {
	if code := strings.TrimSpace(v.DestinationLocode); code != "" {
		return code
	}
	return strings.TrimSpace(v.Destination)
}

// Validate checks the fields the route pipeline cannot run without.
func (v *VesselState) Validate() error {
	if !v.HasPosition() {
		return fmt.Errorf("vessel %q has no valid position", v.Label())
	}
	if v.Speed < 0 || math.IsNaN(v.Speed) {
		return fmt.Errorf("vessel %q has invalid speed %v", v.Label(), v.Speed)
	}
	return nil
}

// Label returns the most readable identifier available.
func (v *VesselState) Label() string {
	switch {
	case v.Name != "":
		return v.Name
	case v.IMO != "":
		return "IMO " + v.IMO
	case v.MMSI != "":
		return "MMSI " + v.MMSI
	default:
		return "unknown vessel"
	}
}
