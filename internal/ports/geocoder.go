package ports

import (
	"context"
	"strings"

	"github.com/ngmaloney/routewatch/internal/geocoding"
	"github.com/ngmaloney/routewatch/internal/models"
)

// Geocoder is the subset of geocoding.Geocoder the resolver uses.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*geocoding.Location, error)
}

// GeocoderResolver resolves free-text destinations through a geocoder.
type GeocoderResolver struct {
	geocoder Geocoder
}

// NewGeocoderResolver wraps g.
func NewGeocoderResolver(g Geocoder) *GeocoderResolver {
	return &GeocoderResolver{geocoder: g}
}

func (r *GeocoderResolver) Resolve(ctx context.Context, query string) (*models.Port, error) {
	loc, err := r.geocoder.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}

	name := loc.Name
	if i := strings.Index(name, ","); i > 0 {
		name = name[:i]
	}
	if name == "" {
		name = strings.TrimSpace(query)
	}
	return &models.Port{
		Name:      name,
		Country:   strings.ToUpper(loc.CountryCode),
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Active:    true,
		Source:    "nominatim",
	}, nil
}
