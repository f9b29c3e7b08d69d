package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const connectTimeout = 5 * time.Second

// DB is the chunk and session store backed by a pgx pool.
type DB struct {
	pool *pgxpool.Pool
}

// New opens a pool on connString and verifies the server answers. Pool limits
// given as pool_* parameters in connString take precedence over the defaults.
func New(ctx context.Context, connString string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	applyPoolDefaults(cfg, connString)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	d := &DB{pool: pool}
	if err := d.Ping(ctx, connectTimeout); err != nil {
		pool.Close()
		return nil, err
	}
	return d, nil
}

func applyPoolDefaults(cfg *pgxpool.Config, connString string) {
	if !strings.Contains(connString, "pool_max_conns") {
		cfg.MaxConns = 10
	}
	if !strings.Contains(connString, "pool_max_conn_lifetime") {
		cfg.MaxConnLifetime = time.Hour
	}
	if !strings.Contains(connString, "pool_max_conn_idle_time") {
		cfg.MaxConnIdleTime = 30 * time.Minute
	}
}

// Ping reports whether the database answers within timeout.
func (d *DB) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := d.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

func (d *DB) Pool() *pgxpool.Pool { return d.pool }

func (d *DB) Close() { d.pool.Close() }
