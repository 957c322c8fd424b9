package models

import (
	"strings"
	"time"
)

// Port is a resolvable destination: a named harbour with coordinates and,
// when known, its UN/LOCODE.
type Port struct {
	ID               int64     `json:"id"`     // Database primary key (0 if not stored)
	Name             string    `json:"name"`   // e.g. "Rotterdam"
	Locode           string    `json:"locode"` // e.g. "NLRTM"
	Country          string    `json:"country"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	AlternativeNames []string  `json:"alternative_names,omitempty"`
	Active           bool      `json:"active"`
	Source           string    `json:"source,omitempty"` // which resolver produced it
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// MatchesName reports whether name equals the port name or one of its
// alternative names, ignoring case.
func (p *Port) MatchesName(name string) bool {
	name = strings.TrimSpace(name)
	if strings.EqualFold(p.Name, name) {
		return true
	}
	for _, alt := range p.AlternativeNames {
		if strings.EqualFold(alt, name) {
			return true
		}
	}
	return false
}
