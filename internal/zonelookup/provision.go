package zonelookup

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonas-p/go-shp"

	"github.com/ngmaloney/routewatch/internal/database"
)

// MarineZonesURL is the NOAA marine zones shapefile (updated quarterly).
const MarineZonesURL = "https://www.weather.gov/source/gis/Shapefiles/WSOM/mz18mr25.zip"

// Provisioner fills the marine_zones table from the NOAA shapefile.
type Provisioner struct {
	URL        string
	DataDir    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewProvisioner returns a provisioner that downloads into dataDir.
func NewProvisioner(dataDir string, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{
		URL:        MarineZonesURL,
		DataDir:    dataDir,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
		Logger:     logger,
	}
}

// Ensure provisions the table unless it already holds zones.
func (p *Provisioner) Ensure(ctx context.Context, db *sql.DB) error {
	exists, err := database.TableExists(ctx, db, "marine_zones")
	if err != nil {
		return err
	}
	if exists {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM marine_zones").Scan(&n); err != nil {
			return fmt.Errorf("counting zones: %w", err)
		}
		if n > 0 {
			return nil
		}
	}

	p.Logger.Info("marine zones table empty, provisioning", "url", p.URL)
	if err := os.MkdirAll(p.DataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	zipPath := filepath.Join(p.DataDir, "marine_zones.zip")
	if err := p.download(ctx, zipPath); err != nil {
		return fmt.Errorf("downloading shapefile: %w", err)
	}
	defer os.Remove(zipPath)

	n, err := LoadShapefileZip(ctx, db, zipPath, p.Logger)
	if err != nil {
		return fmt.Errorf("building zone table: %w", err)
	}
	p.Logger.Info("provisioned marine zones", "zones", n)
	return nil
}

func (p *Provisioner) download(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", p.URL, nil)
	if err != nil {
		return err
	}
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// LoadShapefileZip reads a zipped shapefile with ID, NAME, LON and LAT
// attributes into marine_zones, replacing its contents. Only the largest
// ring of each polygon is kept. It returns the number of zones stored.
func LoadShapefileZip(ctx context.Context, db *sql.DB, zipPath string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	zr, err := shp.OpenZip(zipPath)
	if err != nil {
		return 0, fmt.Errorf("opening shapefile: %w", err)
	}
	defer zr.Close()

	fields := make(map[string]int)
	for i, f := range zr.Fields() {
		fields[strings.ToUpper(f.String())] = i
	}
	idField, ok := fields["ID"]
	if !ok {
		return 0, fmt.Errorf("shapefile has no ID attribute")
	}
	attr := func(name string) string {
		i, ok := fields[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(strings.Trim(zr.Attribute(i), "\x00"))
	}

	if err := EnsureSchema(ctx, db); err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM marine_zones"); err != nil {
		return 0, fmt.Errorf("clearing zones: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO marine_zones (
			zone_code, zone_name, geometry,
			bbox_min_lat, bbox_max_lat, bbox_min_lon, bbox_max_lon,
			center_lat, center_lon
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for zr.Next() {
		_, shape := zr.Shape()
		polygon, ok := shape.(*shp.Polygon)
		if !ok || len(polygon.Points) == 0 {
			continue
		}

		code := strings.ToUpper(strings.TrimSpace(strings.Trim(zr.Attribute(idField), "\x00")))
		if code == "" {
			continue
		}
		ring := largestRing(polygon)
		bbox := polygon.BBox()

		centerLat, latErr := strconv.ParseFloat(attr("LAT"), 64)
		centerLon, lonErr := strconv.ParseFloat(attr("LON"), 64)
		if latErr != nil || lonErr != nil {
			centerLat = (bbox.MinY + bbox.MaxY) / 2
			centerLon = (bbox.MinX + bbox.MaxX) / 2
		}

		geometry, err := json.Marshal(ring)
		if err != nil {
			logger.Warn("skipping zone geometry", "zone", code, "error", err)
			continue
		}

		if _, err := stmt.ExecContext(ctx, code, attr("NAME"), string(geometry),
			bbox.MinY, bbox.MaxY, bbox.MinX, bbox.MaxX,
			centerLat, centerLon); err != nil {
			return count, fmt.Errorf("inserting zone %s: %w", code, err)
		}

		count++
		if count%100 == 0 {
			logger.Debug("processed zones", "count", count)
		}
	}
	if err := zr.Err(); err != nil {
		return count, fmt.Errorf("reading shapefile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing zones: %w", err)
	}
	return count, nil
}

// largestRing returns the part with the most points as [x, y] pairs.
func largestRing(p *shp.Polygon) [][]float64 {
	largest, largestSize := 0, 0
	for i := range p.Parts {
		start, end := partBounds(p, i)
		if end-start > largestSize {
			largest, largestSize = i, end-start
		}
	}

	start, end := partBounds(p, largest)
	coords := make([][]float64, 0, end-start)
	for _, pt := range p.Points[start:end] {
		coords = append(coords, []float64{pt.X, pt.Y})
	}
	return coords
}

func partBounds(p *shp.Polygon, i int) (int, int) {
	if len(p.Parts) == 0 {
		return 0, len(p.Points)
	}
	start := int(p.Parts[i])
	end := len(p.Points)
	if i+1 < len(p.Parts) {
		end = int(p.Parts[i+1])
	}
	return start, end
}
