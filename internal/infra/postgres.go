package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing for the registry's profile: many short single-row transactions
// serialized per account by advisory locks. A connection is held only for
// the lock's duration, so a modest pool is enough; oversizing it just queues
// more writers behind the same account lock.
const (
	registryMaxConns        = 16
	registryMinConns        = 2
	registryConnLifetime    = time.Hour
	registryConnIdleTime    = 10 * time.Minute
	registryHealthCheckTick = 30 * time.Second
	pingTimeout             = 3 * time.Second
)

// NewPostgresPool connects a pgx pool for the compliance registry and
// verifies the database is reachable before returning it.
func NewPostgresPool(ctx context.Context, cfg *Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse registry DSN: %w", err)
	}

	poolCfg.MaxConns = registryMaxConns
	poolCfg.MinConns = registryMinConns
	poolCfg.MaxConnLifetime = registryConnLifetime
	poolCfg.MaxConnIdleTime = registryConnIdleTime
	poolCfg.HealthCheckPeriod = registryHealthCheckTick
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "safestake-registry"

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create registry pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping registry database: %w", err)
	}
	return pool, nil
}

// HealthCheck pings the registry database with a bounded timeout.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return pool.Ping(ctx)
}
