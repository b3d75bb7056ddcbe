package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB is the shared connection pool plus the query builder configured for
// its dialect. It is safe for concurrent use.
type DB struct {
	*sql.DB
	QueryBuilder *squirrel.StatementBuilderType
	Dialect      Dialect

	pinger  func(ctx context.Context) error
	closers []func() error
}

type Option func(*DB)

// WithPinger replaces the default health check.
func WithPinger(pinger func(ctx context.Context) error) Option {
	return func(db *DB) {
		db.pinger = pinger
	}
}

// WithCloser registers a resource released together with the pool.
func WithCloser(closer func() error) Option {
	return func(db *DB) {
		db.closers = append(db.closers, closer)
	}
}

func NewDB(sqlDB *sql.DB, dialect Dialect, opts ...Option) *DB {
	var placeholder squirrel.PlaceholderFormat = squirrel.Question
	if dialect == DialectPostgres {
		placeholder = squirrel.Dollar
	}

	queryBuilder := squirrel.StatementBuilder.PlaceholderFormat(placeholder)

	db := &DB{
		DB:           sqlDB,
		QueryBuilder: &queryBuilder,
		Dialect:      dialect,
	}

	for _, opt := range opts {
		opt(db)
	}

	return db
}

func (db *DB) Ping(ctx context.Context) error {
	if db.pinger != nil {
		return db.pinger(ctx)
	}

	return db.PingContext(ctx)
}

func (db *DB) Close() error {
	var errs []error

	if err := db.DB.Close(); err != nil {
		errs = append(errs, err)
	}

	for _, closer := range db.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
