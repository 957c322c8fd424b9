package ports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ngmaloney/routewatch/internal/apperr"
	"github.com/ngmaloney/routewatch/internal/database"
	"github.com/ngmaloney/routewatch/internal/models"
)

const pgPortColumns = "id, name, locode, country, latitude, longitude, alternative_names, active, created_at"

// PostgresRepository stores ports in postgres.
type PostgresRepository struct {
	db *database.Postgres
}

// NewPostgresRepository creates a repository over db. The schema must
// already exist.
func NewPostgresRepository(db *database.Postgres) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByLocode(ctx context.Context, locode string) (*models.Port, error) {
	code, _ := NormalizeLocode(locode)
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+pgPortColumns+` FROM ports WHERE locode = $1 AND active ORDER BY id LIMIT 1`, code)
	return pgScanOne(row, "locode "+code)
}

func (r *PostgresRepository) FindByName(ctx context.Context, name string) (*models.Port, error) {
	name = strings.TrimSpace(name)
	row := r.db.Pool.QueryRow(ctx, `
		SELECT `+pgPortColumns+` FROM ports
		WHERE active AND (
			lower(name) = lower($1) OR
			EXISTS (SELECT 1 FROM unnest(alternative_names) AS alt WHERE lower(alt) = lower($1))
		)
		ORDER BY (lower(name) = lower($1)) DESC, id
		LIMIT 1`, name)
	return pgScanOne(row, "name "+name)
}

func (r *PostgresRepository) Search(ctx context.Context, query string, limit int) ([]models.Port, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+pgPortColumns+` FROM ports
		WHERE active AND (
			name ILIKE $1 OR
			locode ILIKE $1 OR
			country ILIKE $1 OR
			EXISTS (SELECT 1 FROM unnest(alternative_names) AS alt WHERE alt ILIKE $1)
		)
		ORDER BY name
		LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching ports: %w", err)
	}
	defer rows.Close()

	var ports []models.Port
	for rows.Next() {
		p, err := pgScanPort(rows)
		if err != nil {
			return nil, err
		}
		ports = append(ports, *p)
	}
	return ports, rows.Err()
}

func (r *PostgresRepository) Upsert(ctx context.Context, p *models.Port) error {
	code, _ := NormalizeLocode(p.Locode)
	alt := p.AlternativeNames
	if alt == nil {
		alt = []string{}
	}
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO ports (name, locode, country, latitude, longitude, alternative_names, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (locode, name) DO UPDATE SET
			country = EXCLUDED.country,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			alternative_names = EXCLUDED.alternative_names,
			active = EXCLUDED.active
		RETURNING id`,
		p.Name, code, p.Country, p.Latitude, p.Longitude, alt, p.Active,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("saving port %s: %w", p.Name, err)
	}
	p.Locode = code
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM ports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting ports: %w", err)
	}
	return n, nil
}

func pgScanOne(row pgx.Row, what string) (*models.Port, error) {
	p, err := pgScanPort(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("port %s: %w", what, apperr.ErrNotFound)
	}
	return p, err
}

func pgScanPort(row pgx.Row) (*models.Port, error) {
	var p models.Port
	err := row.Scan(&p.ID, &p.Name, &p.Locode, &p.Country, &p.Latitude, &p.Longitude, &p.AlternativeNames, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning port: %w", err)
	}
	return &p, nil
}
