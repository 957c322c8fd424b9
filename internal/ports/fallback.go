package ports

import (
	"context"
	"fmt"
	"strings"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/models"
)

// builtinPorts is the resolver of last resort before geocoding. Names
// include the country so the substring match accepts "Tallinn, Estonia"
// as well as "Tallinn".
var builtinPorts = []models.Port{
	{Locode: "EETLL", Name: "Tallinn", Country: "EE", Latitude: 59.4370, Longitude: 24.7536, AlternativeNames: []string{"Tallinn, Estonia"}},
	{Locode: "BEANR", Name: "Antwerp", Country: "BE", Latitude: 51.2194, Longitude: 4.4025, AlternativeNames: []string{"Antwerpen"}},
	{Locode: "BEZEE", Name: "Zeebrugge", Country: "BE", Latitude: 51.3333, Longitude: 3.2167, AlternativeNames: []string{"Zeebrugge, Belgium"}},
	{Locode: "NLAMS", Name: "Amsterdam", Country: "NL", Latitude: 52.3676, Longitude: 4.9041},
	{Locode: "NLRTM", Name: "Rotterdam", Country: "NL", Latitude: 51.9244, Longitude: 4.4777},
	{Locode: "DEHAM", Name: "Hamburg", Country: "DE", Latitude: 53.5511, Longitude: 9.9937},
	{Locode: "GBSOU", Name: "Southampton", Country: "GB", Latitude: 50.9097, Longitude: -1.4044},
	{Locode: "GBLON", Name: "London", Country: "GB", Latitude: 51.5074, Longitude: -0.1278},
	{Locode: "GBPME", Name: "Portsmouth", Country: "GB", Latitude: 50.8198, Longitude: -1.0880, AlternativeNames: []string{"Portsmouth, United Kingdom (UK)"}},
	{Locode: "FRLEH", Name: "Le Havre", Country: "FR", Latitude: 49.4944, Longitude: 0.1079},
	{Locode: "ESBIO", Name: "Bilbao", Country: "ES", Latitude: 43.2627, Longitude: -2.9253},
	{Locode: "ESBCN", Name: "Barcelona", Country: "ES", Latitude: 41.3851, Longitude: 2.1734},
	{Locode: "FRMRS", Name: "Marseille", Country: "FR", Latitude: 43.2965, Longitude: 5.3698},
	{Locode: "ITGOA", Name: "Genoa", Country: "IT", Latitude: 44.4056, Longitude: 8.9463, AlternativeNames: []string{"Genova"}},
	{Locode: "ITNAP", Name: "Naples", Country: "IT", Latitude: 40.8518, Longitude: 14.2681, AlternativeNames: []string{"Napoli"}},
	{Locode: "GRPIR", Name: "Piraeus", Country: "GR", Latitude: 37.9472, Longitude: 23.6348},
	{Locode: "TRIST", Name: "Istanbul", Country: "TR", Latitude: 41.0082, Longitude: 28.9784},
	{Locode: "USNYC", Name: "New York", Country: "US", Latitude: 40.6892, Longitude: -74.0445},
	{Locode: "USLAX", Name: "Los Angeles", Country: "US", Latitude: 33.7174, Longitude: -118.2517},
	{Locode: "USMIA", Name: "Miami", Country: "US", Latitude: 25.7617, Longitude: -80.1918},
	{Locode: "USHOU", Name: "Houston", Country: "US", Latitude: 29.7604, Longitude: -95.3698},
	{Locode: "USCLE", Name: "Cleveland", Country: "US", Latitude: 41.4993, Longitude: -81.6944, AlternativeNames: []string{"Cleveland, United States (USA)"}},
	{Locode: "CAVAN", Name: "Vancouver", Country: "CA", Latitude: 49.2827, Longitude: -123.1207},
	{Locode: "SGSIN", Name: "Singapore", Country: "SG", Latitude: 1.2966, Longitude: 103.7764},
	{Locode: "HKHKG", Name: "Hong Kong", Country: "HK", Latitude: 22.3193, Longitude: 114.1694},
	{Locode: "CNSHA", Name: "Shanghai", Country: "CN", Latitude: 31.2304, Longitude: 121.4737},
	{Locode: "JPTYO", Name: "Tokyo", Country: "JP", Latitude: 35.6762, Longitude: 139.6503},
	{Locode: "AEDXB", Name: "Dubai", Country: "AE", Latitude: 25.2048, Longitude: 55.2708},
	{Locode: "INBOM", Name: "Mumbai", Country: "IN", Latitude: 19.0760, Longitude: 72.8777},
	{Locode: "ZACPT", Name: "Cape Town", Country: "ZA", Latitude: -33.9249, Longitude: 18.4241},
	{Locode: "NGLOS", Name: "Lagos", Country: "NG", Latitude: 6.4281, Longitude: 3.4219},
	{Locode: "EGALY", Name: "Alexandria", Country: "EG", Latitude: 31.2001, Longitude: 29.9187},
	{Locode: "EGSUZ", Name: "Suez", Country: "EG", Latitude: 29.9668, Longitude: 32.5498},
	{Locode: "PAPTY", Name: "Panama City", Country: "PA", Latitude: 8.9824, Longitude: -79.5199},
	{Locode: "BRSSZ", Name: "Santos", Country: "BR", Latitude: -23.9608, Longitude: -46.3331},
	{Locode: "ARBUE", Name: "Buenos Aires", Country: "AR", Latitude: -34.6118, Longitude: -58.3960},
	{Locode: "AUSYD", Name: "Sydney", Country: "AU", Latitude: -33.8688, Longitude: 151.2093},
	{Locode: "AUMEL", Name: "Melbourne", Country: "AU", Latitude: -37.8136, Longitude: 144.9631},
	{Locode: "NZAKL", Name: "Auckland", Country: "NZ", Latitude: -36.8485, Longitude: 174.7633},
	{Locode: "BRPNG", Name: "Paranaguá", Country: "BR", Latitude: -25.5163, Longitude: -48.5082, AlternativeNames: []string{"Paranagua"}},
}

// Fallback resolves against the built-in port table.
type Fallback struct {
	ports []models.Port
}

// NewFallback returns a resolver over the built-in table.
func NewFallback() *Fallback {
	return &Fallback{ports: BuiltinPorts()}
}

// BuiltinPorts returns a copy of the built-in table.
func BuiltinPorts() []models.Port {
	out := make([]models.Port, len(builtinPorts))
	for i, p := range builtinPorts {
		p.AlternativeNames = append([]string(nil), p.AlternativeNames...)
		p.Active = true
		out[i] = p
	}
	return out
}

func (f *Fallback) Resolve(_ context.Context, query string) (*models.Port, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("empty destination: %w", apperr.ErrNotFound)
	}

	if code, ok := NormalizeLocode(q); ok {
		for i := range f.ports {
			if f.ports[i].Locode == code {
				return f.found(i), nil
			}
		}
	}
	for i := range f.ports {
		if f.ports[i].MatchesName(q) {
			return f.found(i), nil
		}
	}

	lower := strings.ToLower(q)
	for i := range f.ports {
		if overlaps(lower, f.ports[i].Name) {
			return f.found(i), nil
		}
		for _, alt := range f.ports[i].AlternativeNames {
			if overlaps(lower, alt) {
				return f.found(i), nil
			}
		}
	}
	return nil, fmt.Errorf("port %q not in built-in table: %w", q, apperr.ErrNotFound)
}

func (f *Fallback) found(i int) *models.Port {
	p := f.ports[i]
	p.Source = "builtin"
	return &p
}
