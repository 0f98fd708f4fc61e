package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultConnLifetime = 30 * time.Minute
	defaultConnIdleTime = 5 * time.Minute
	healthCheckPeriod   = 30 * time.Second
)

// PoolSettings tunes the pgx pool. Zero durations fall back to the
// package defaults; zero conn counts leave pgx's own defaults alone.
type PoolSettings struct {
	MaxConns     int32
	MinConns     int32
	ConnLifetime time.Duration
	ConnIdleTime time.Duration
}

func (s PoolSettings) withDefaults() PoolSettings {
	if s.ConnLifetime <= 0 {
		s.ConnLifetime = defaultConnLifetime
	}
	if s.ConnIdleTime <= 0 {
		s.ConnIdleTime = defaultConnIdleTime
	}
	return s
}

type DB struct {
	Pool *pgxpool.Pool
}

// Open connects, applies the pool settings, and verifies the database
// is actually reachable before handing the pool out.
func Open(ctx context.Context, databaseURL string, settings PoolSettings) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	settings = settings.withDefaults()
	if settings.MaxConns > 0 {
		poolCfg.MaxConns = settings.MaxConns
	}
	if settings.MinConns > 0 {
		poolCfg.MinConns = settings.MinConns
	}
	poolCfg.MaxConnLifetime = settings.ConnLifetime
	poolCfg.MaxConnIdleTime = settings.ConnIdleTime
	poolCfg.HealthCheckPeriod = healthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	slog.Info("postgres pool ready",
		"max_conns", poolCfg.MaxConns,
		"min_conns", poolCfg.MinConns,
		"conn_lifetime", settings.ConnLifetime)

	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

func (db *DB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
