// Package zonelookup maps positions to NOAA marine forecast zones using the
// zone table provisioned from the NOAA shapefile.
package zonelookup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/geo"
)

const provider = "marine-zones"

// ZoneInfo represents a marine zone with its distance from a point
type ZoneInfo struct {
	Code     string
	Name     string
	Distance float64 // Distance in miles
}

// Lookup answers zone queries against the marine_zones table.
type Lookup struct {
	db               *sql.DB
	maxDistanceMiles float64
	logger           *slog.Logger
}

// New creates a Lookup. Points farther than maxDistanceMiles from every
// zone center, and inside no zone polygon, have no zone.
func New(db *sql.DB, maxDistanceMiles float64, logger *slog.Logger) *Lookup {
	if logger == nil {
		logger = slog.Default()
	}
	if maxDistanceMiles <= 0 {
		maxDistanceMiles = 50
	}
	return &Lookup{db: db, maxDistanceMiles: maxDistanceMiles, logger: logger}
}

// EnsureSchema creates the marine_zones table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS marine_zones (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			zone_code TEXT NOT NULL,
			zone_name TEXT,
			geometry TEXT NOT NULL DEFAULT '[]',
			bbox_min_lat REAL NOT NULL,
			bbox_max_lat REAL NOT NULL,
			bbox_min_lon REAL NOT NULL,
			bbox_max_lon REAL NOT NULL,
			center_lat REAL NOT NULL,
			center_lon REAL NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_zones_bbox ON marine_zones(
			bbox_min_lat, bbox_max_lat, bbox_min_lon, bbox_max_lon
		);
		CREATE INDEX IF NOT EXISTS idx_zones_code ON marine_zones(zone_code);
		CREATE INDEX IF NOT EXISTS idx_zones_center ON marine_zones(center_lat, center_lon);
	`)
	if err != nil {
		return fmt.Errorf("creating marine_zones table: %w", err)
	}
	return nil
}

// MarineZone returns the code of the zone containing the point, or of the
// nearest zone center within range.
func (l *Lookup) MarineZone(ctx context.Context, lat, lng float64) (string, error) {
	code, err := l.containing(ctx, lat, lng)
	if err != nil {
		return "", apperr.Unavailable(provider, err)
	}
	if code != "" {
		return code, nil
	}

	zones, err := l.Nearby(ctx, lat, lng, l.maxDistanceMiles)
	if err != nil {
		return "", apperr.Unavailable(provider, err)
	}
	if len(zones) == 0 {
		return "", apperr.NoData(provider, fmt.Errorf("no marine zone within %.0f miles of %.4f,%.4f", l.maxDistanceMiles, lat, lng))
	}
	return zones[0].Code, nil
}

// containing tests the polygons whose bounding box holds the point.
func (l *Lookup) containing(ctx context.Context, lat, lng float64) (string, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT zone_code, geometry
		FROM marine_zones
		WHERE ? BETWEEN bbox_min_lat AND bbox_max_lat
		  AND ? BETWEEN bbox_min_lon AND bbox_max_lon
		ORDER BY (bbox_max_lat - bbox_min_lat) * (bbox_max_lon - bbox_min_lon)
	`, lat, lng)
	if err != nil {
		return "", fmt.Errorf("querying zones: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code, geometry string
		if err := rows.Scan(&code, &geometry); err != nil {
			return "", fmt.Errorf("scanning zone: %w", err)
		}
		var ring [][]float64
		if err := json.Unmarshal([]byte(geometry), &ring); err != nil {
			l.logger.Warn("skipping zone with bad geometry", "zone", code, "error", err)
			continue
		}
		if pointInRing(lng, lat, ring) {
			return code, nil
		}
	}
	return "", rows.Err()
}

// pointInRing is the even-odd ray casting test. ring holds [x, y] pairs.
func pointInRing(x, y float64, ring [][]float64) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		if len(ring[i]) < 2 || len(ring[j]) < 2 {
			continue
		}
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// Nearby finds marine zones whose center lies within maxDistanceMiles,
// closest first.
func (l *Lookup) Nearby(ctx context.Context, lat, lng, maxDistanceMiles float64) ([]ZoneInfo, error) {
	// Rough box filter before computing distances; longitude degrees shrink
	// toward the poles.
	latDelta := maxDistanceMiles / 69.0 * 1.5
	lonDelta := maxDistanceMiles / 55.0 * 1.5

	rows, err := l.db.QueryContext(ctx, `
		SELECT zone_code, zone_name, center_lat, center_lon
		FROM marine_zones
		WHERE center_lat BETWEEN ? AND ?
		  AND center_lon BETWEEN ? AND ?
	`, lat-latDelta, lat+latDelta, lng-lonDelta, lng+lonDelta)
	if err != nil {
		return nil, fmt.Errorf("querying zones: %w", err)
	}
	defer rows.Close()

	var zones []ZoneInfo
	for rows.Next() {
		var (
			code                 string
			name                 sql.NullString
			centerLat, centerLon float64
		)
		if err := rows.Scan(&code, &name, &centerLat, &centerLon); err != nil {
			return nil, fmt.Errorf("scanning zone: %w", err)
		}

		distance := geo.Distance(lat, lng, centerLat, centerLon) * geo.NMToMiles
		if distance <= maxDistanceMiles {
			zones = append(zones, ZoneInfo{Code: code, Name: name.String, Distance: distance})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(zones, func(i, j int) bool {
		return zones[i].Distance < zones[j].Distance
	})
	return zones, nil
}

// ZoneByCode retrieves a single zone. Distance is zero.
func (l *Lookup) ZoneByCode(ctx context.Context, code string) (*ZoneInfo, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	var name sql.NullString
	err := l.db.QueryRowContext(ctx,
		"SELECT zone_code, zone_name FROM marine_zones WHERE zone_code = ? LIMIT 1",
		code,
	).Scan(&code, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("zone %s: %w", code, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying zone by code: %w", err)
	}
	return &ZoneInfo{Code: code, Name: name.String}, nil
}

// Count returns the number of stored zones.
func (l *Lookup) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM marine_zones").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting zones: %w", err)
	}
	return n, nil
}
