package ports

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ngmaloney/routewatch/internal/models"
)

// ImportStats summarizes an import run.
type ImportStats struct {
	Imported int
	Skipped  int
}

var requiredColumns = []string{"port_name", "un_locode", "latitude", "longitude"}

// ImportCSV loads a port list with the columns port_name, un_locode,
// latitude and longitude. Rows without usable coordinates are skipped.
// A trailing " Port" is dropped from the name and the original name kept as
// an alternative name.
func ImportCSV(ctx context.Context, repo Repository, r io.Reader, logger *slog.Logger) (ImportStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats ImportStats

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return stats, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return stats, fmt.Errorf("missing column %q", c)
		}
	}

	field := func(rec []string, name string) string {
		i := cols[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			logger.Warn("skipping malformed row", "line", line, "error", err)
			stats.Skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		raw := field(rec, "port_name")
		lat, latErr := strconv.ParseFloat(field(rec, "latitude"), 64)
		lng, lngErr := strconv.ParseFloat(field(rec, "longitude"), 64)
		if raw == "" || latErr != nil || lngErr != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			stats.Skipped++
			continue
		}

		p := portFromRow(raw, field(rec, "un_locode"), lat, lng)
		if err := repo.Upsert(ctx, &p); err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
		stats.Imported++
	}

	logger.Info("port import complete", "imported", stats.Imported, "skipped", stats.Skipped)
	return stats, nil
}

// LoadCSVFile imports the CSV file at path.
func LoadCSVFile(ctx context.Context, repo Repository, path string, logger *slog.Logger) (ImportStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportStats{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ImportCSV(ctx, repo, f, logger)
}

// SeedBuiltin stores the built-in table when the repository is empty.
func SeedBuiltin(ctx context.Context, repo Repository) (int, error) {
	n, err := repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	ports := BuiltinPorts()
	for i := range ports {
		if err := repo.Upsert(ctx, &ports[i]); err != nil {
			return i, err
		}
	}
	return len(ports), nil
}

func portFromRow(raw, locode string, lat, lng float64) models.Port {
	name := raw
	if trimmed := strings.TrimSpace(strings.TrimSuffix(raw, " Port")); trimmed != "" {
		name = trimmed
	}
	var alt []string
	if name != raw {
		alt = append(alt, raw)
	}

	code, ok := NormalizeLocode(locode)
	country := ""
	if ok {
		country = code[:2]
	} else {
		code = ""
	}
	return models.Port{
		Name:             name,
		Locode:           code,
		Country:          country,
		Latitude:         lat,
		Longitude:        lng,
		AlternativeNames: alt,
		Active:           true,
	}
}
