package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres wraps pgxpool.Pool for the postgres port backend.
type Postgres struct {
	Pool *pgxpool.Pool
}

// OpenPostgres creates a connection pool and verifies it.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Postgres{Pool: pool}, nil
}

// EnsurePortSchema creates the ports table in postgres.
func (p *Postgres) EnsurePortSchema(ctx context.Context) error {
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ports (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			locode TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			alternative_names TEXT[] NOT NULL DEFAULT '{}',
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (locode, name)
		);
		CREATE INDEX IF NOT EXISTS idx_ports_name ON ports (lower(name));
		CREATE INDEX IF NOT EXISTS idx_ports_country ON ports (country);
	`)
	if err != nil {
		return fmt.Errorf("creating ports table: %w", err)
	}
	return nil
}

// Ping checks the pool.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

// Close releases pool resources.
func (p *Postgres) Close() {
	p.Pool.Close()
}
