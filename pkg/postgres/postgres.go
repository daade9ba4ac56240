// Package postgres opens pooled sqlx connections through the pgx stdlib driver
// and applies schema migrations.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const driverName = "pgx"

type poolOptions struct {
	connMaxIdleTime time.Duration
	connMaxLifetime time.Duration
	maxIdleConns    int
	maxOpenConns    int
}

func defaultPoolOptions() poolOptions {
	return poolOptions{
		connMaxIdleTime: 5 * time.Minute,
		connMaxLifetime: 30 * time.Minute,
		maxIdleConns:    5,
		maxOpenConns:    25,
	}
}

// Option tunes the connection pool. Zero and negative values keep the default.
type Option func(*poolOptions)

func WithConnMaxIdleTime(d time.Duration) Option {
	return func(o *poolOptions) {
		if d > 0 {
			o.connMaxIdleTime = d
		}
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(o *poolOptions) {
		if d > 0 {
			o.connMaxLifetime = d
		}
	}
}

func WithMaxIdleConns(n int) Option {
	return func(o *poolOptions) {
		if n > 0 {
			o.maxIdleConns = n
		}
	}
}

func WithMaxOpenConns(n int) Option {
	return func(o *poolOptions) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

func newPoolOptions(opts ...Option) poolOptions {
	o := defaultPoolOptions()
	for _, opt := range opts {
		opt(&o)
	}

	// Idle connections beyond the open limit would be closed immediately.
	o.maxIdleConns = min(o.maxIdleConns, o.maxOpenConns)

	return o
}

func New(ctx context.Context, dsn string, opts ...Option) (*sqlx.DB, error) {
	const op = "postgres.New"

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	o := newPoolOptions(opts...)

	db.SetConnMaxIdleTime(o.connMaxIdleTime)
	db.SetConnMaxLifetime(o.connMaxLifetime)
	db.SetMaxIdleConns(o.maxIdleConns)
	db.SetMaxOpenConns(o.maxOpenConns)

	return db, nil
}
