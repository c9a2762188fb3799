// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klvinai/sentinelsuite/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the store and admin
// surfaces use. Prepared statements eliminate parse overhead on every lookup,
// which matters here because thresholds/recipients are point queries on the
// hot classification path whenever the TTL cache misses.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		"health_check": "SELECT 1",

		"get_thresholds": "SELECT yellow, orange, red FROM sensor_thresholds WHERE device_id = $1 AND sensor_id = $2",

		"get_entity_names": "SELECT factory_name, zone_name, machine_name FROM devices WHERE device_id = $1",

		"get_emails_yellow": "SELECT email FROM device_recipients WHERE device_id = $1 AND tier = 1",
		"get_emails_orange": "SELECT email FROM device_recipients WHERE device_id = $1 AND tier IN (1, 2)",
		"get_emails_red":    "SELECT email FROM device_recipients WHERE device_id = $1 AND tier IN (1, 2, 3)",

		"get_all_company_ids": "SELECT DISTINCT company_id FROM devices",

		// Recursive lookup: devices may be nested under other devices
		// (gateway/sub-device hierarchies); walk up to the owning company.
		"company_id_for_device": `
			WITH RECURSIVE device_chain(device_id, parent_device_id, company_id) AS (
				SELECT device_id, parent_device_id, company_id
				FROM devices WHERE device_id = $1
				UNION ALL
				SELECT d.device_id, d.parent_device_id, d.company_id
				FROM devices d
				JOIN device_chain c ON d.device_id = c.parent_device_id
			)
			SELECT company_id FROM device_chain WHERE company_id IS NOT NULL LIMIT 1`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
