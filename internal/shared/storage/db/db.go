// Package db opens the Postgres handle behind the run-audit store.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx as the database/sql driver

	"docrisk-backend/internal/shared/telemetry"
)

// ErrNoURL is returned by Open when no connection string is configured.
var ErrNoURL = errors.New("database url is empty")

// Options sizes the pool. Callers start from a profile and layer overrides with With.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ServerOptions suits the long-running API process.
func ServerOptions() Options {
	return Options{MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: time.Hour, ConnMaxIdleTime: 2 * time.Minute, PingTimeout: 5 * time.Second}
}

// LambdaOptions keeps each warm container to a couple of connections.
func LambdaOptions() Options {
	return Options{MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxLifetime: 15 * time.Minute, ConnMaxIdleTime: 30 * time.Second, PingTimeout: 3 * time.Second}
}

// MigrateOptions is a single connection for the migrate command.
func MigrateOptions() Options {
	return Options{MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxLifetime: time.Hour, PingTimeout: 5 * time.Second}
}

// With returns o with every non-zero field of override applied.
func (o Options) With(override Options) Options {
	if override.MaxOpenConns > 0 {
		o.MaxOpenConns = override.MaxOpenConns
	}
	if override.MaxIdleConns > 0 {
		o.MaxIdleConns = override.MaxIdleConns
	}
	if override.ConnMaxLifetime > 0 {
		o.ConnMaxLifetime = override.ConnMaxLifetime
	}
	if override.ConnMaxIdleTime > 0 {
		o.ConnMaxIdleTime = override.ConnMaxIdleTime
	}
	if override.PingTimeout > 0 {
		o.PingTimeout = override.PingTimeout
	}
	return o
}

var openDB = sql.Open

// Open connects with the pgx driver, applies opts and pings once.
func Open(ctx context.Context, url string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrNoURL
	}
	database, err := openDB("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(opts.MaxOpenConns)
	database.SetMaxIdleConns(opts.MaxIdleConns)
	database.SetConnMaxLifetime(opts.ConnMaxLifetime)
	database.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	if err := Ping(ctx, database, opts.PingTimeout); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	telemetry.Info("db.open", map[string]any{
		"max_open": opts.MaxOpenConns,
		"max_idle": opts.MaxIdleConns,
	})
	return database, nil
}

// Ping reports whether the database answers within timeout. A nil db is healthy.
func Ping(ctx context.Context, database *sql.DB, timeout time.Duration) error {
	if database == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return database.PingContext(pingCtx)
}
