package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolOptions describes how the clinic connects to PostgreSQL.
type PoolOptions struct {
	URL             string
	Schema          string
	ApplicationName string
	MaxConns        int32
	MinConns        int32
}

// Config turns o into a pgxpool configuration. Unqualified table names
// resolve in Schema first, then public, quoted the same way the Migrator
// quotes it.
func (o PoolOptions) Config() (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(o.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if o.MaxConns > 0 {
		cfg.MaxConns = o.MaxConns
	}
	if o.MinConns < 0 || o.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("min conns %d outside [0, %d]", o.MinConns, cfg.MaxConns)
	}
	cfg.MinConns = o.MinConns

	params := cfg.ConnConfig.RuntimeParams
	if o.Schema != "" && o.Schema != "public" {
		params["search_path"] = quoteSchema(o.Schema) + ", public"
	}
	if o.ApplicationName != "" {
		if _, set := params["application_name"]; !set {
			params["application_name"] = o.ApplicationName
		}
	}
	return cfg, nil
}

// NewPool opens a pool configured from o and checks it with a ping.
func NewPool(ctx context.Context, o PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := o.Config()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
