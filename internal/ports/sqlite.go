package ports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/models"
)

const portColumns = "id, name, locode, country, latitude, longitude, alternative_names, active, created_at"

// SQLiteRepository stores ports in the shared sqlite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over an open database whose
// schema has been ensured.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) FindByLocode(ctx context.Context, locode string) (*models.Port, error) {
	code, _ := NormalizeLocode(locode)
	row := r.db.QueryRowContext(ctx,
		"SELECT "+portColumns+" FROM ports WHERE locode = ? AND active = 1 ORDER BY id LIMIT 1", code)
	return scanOne(row, "locode "+code)
}

func (r *SQLiteRepository) FindByName(ctx context.Context, name string) (*models.Port, error) {
	name = strings.TrimSpace(name)
	row := r.db.QueryRowContext(ctx,
		"SELECT "+portColumns+" FROM ports WHERE name = ? COLLATE NOCASE AND active = 1 ORDER BY id LIMIT 1", name)
	p, err := scanOne(row, "name "+name)
	if err == nil || !errors.Is(err, apperr.ErrNotFound) {
		return p, err
	}

	row = r.db.QueryRowContext(ctx,
		"SELECT "+portColumns+` FROM ports WHERE alternative_names LIKE ? ESCAPE '\' AND active = 1 ORDER BY id LIMIT 1`,
		"%|"+escapeLike(name)+"|%")
	return scanOne(row, "name "+name)
}

func (r *SQLiteRepository) Search(ctx context.Context, query string, limit int) ([]models.Port, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	rows, err := r.db.QueryContext(ctx, "SELECT "+portColumns+` FROM ports
		WHERE active = 1 AND (
			name LIKE ?1 ESCAPE '\' OR
			locode LIKE ?1 ESCAPE '\' OR
			country LIKE ?1 ESCAPE '\' OR
			alternative_names LIKE ?1 ESCAPE '\'
		)
		ORDER BY name
		LIMIT ?2`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching ports: %w", err)
	}
	defer rows.Close()

	var ports []models.Port
	for rows.Next() {
		p, err := scanPort(rows)
		if err != nil {
			return nil, err
		}
		ports = append(ports, *p)
	}
	return ports, rows.Err()
}

// Upsert inserts the port or updates the row with the same code and name.
func (r *SQLiteRepository) Upsert(ctx context.Context, p *models.Port) error {
	code, _ := NormalizeLocode(p.Locode)
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO ports (name, locode, country, latitude, longitude, alternative_names, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(locode, name) DO UPDATE SET
			country = excluded.country,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			alternative_names = excluded.alternative_names,
			active = excluded.active
		RETURNING id`,
		p.Name, code, p.Country, p.Latitude, p.Longitude, joinNames(p.AlternativeNames), p.Active,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("saving port %s: %w", p.Name, err)
	}
	p.Locode = code
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ports").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting ports: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row, what string) (*models.Port, error) {
	p, err := scanPort(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("port %s: %w", what, apperr.ErrNotFound)
	}
	return p, err
}

func scanPort(s scanner) (*models.Port, error) {
	var (
		p       models.Port
		alt     string
		created sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Locode, &p.Country, &p.Latitude, &p.Longitude, &alt, &p.Active, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning port: %w", err)
	}
	p.AlternativeNames = splitNames(alt)
	p.CreatedAt = parseStoredTime(created.String)
	return &p, nil
}

// parseStoredTime reads created_at, which the driver may hand back as
// sqlite's CURRENT_TIMESTAMP text or as a formatted time.
func parseStoredTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// joinNames stores names as "|a|b|" so LIKE '%|a|%' matches whole names.
func joinNames(names []string) string {
	var clean []string
	for _, n := range names {
		n = strings.TrimSpace(strings.ReplaceAll(n, "|", " "))
		if n != "" {
			clean = append(clean, n)
		}
	}
	if len(clean) == 0 {
		return ""
	}
	return "|" + strings.Join(clean, "|") + "|"
}

func splitNames(s string) []string {
	var names []string
	for _, n := range strings.Split(s, "|") {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}
