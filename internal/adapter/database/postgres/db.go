package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"taskmanagement/internal/adapter/database"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel"
)

const driverName = "pgx"

type Config struct {
	URL        string
	DBName     string
	LogQueries bool
}

// NewDB connects to PostgreSQL. A pgx pool is kept for health checks while
// statements go through database/sql so the repositories stay dialect
// agnostic.
func NewDB(ctx context.Context, cfg Config) (*database.DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	if cfg.DBName == "" {
		cfg.DBName = "taskmanagement"
	}

	pool, err := pgxpool.New(ctx, cfg.URL)

	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := RunMigrations(cfg.URL); err != nil {
		pool.Close()
		return nil, err
	}

	sqlDB, err := otelsql.Open(driverName, cfg.URL,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(cfg.DBName),
		otelsql.WithTracerProvider(otel.GetTracerProvider()),
	)

	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.LogQueries {
		logger := zerolog.New(os.Stdout).With().Timestamp().Str("db", cfg.DBName).Logger()
		sqlDB = sqldblogger.OpenDriver(cfg.URL, sqlDB.Driver(), zerologadapter.New(logger))
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("Database ready", "driver", "postgres", "log_queries", cfg.LogQueries)

	return database.NewDB(sqlDB, database.DialectPostgres,
		database.WithPinger(pool.Ping),
		database.WithCloser(func() error {
			pool.Close()
			return nil
		}),
	), nil
}

// RunMigrations applies the embedded postgres migrations on a short lived
// connection.
func RunMigrations(dbURL string) error {
	sqlDB, err := sql.Open(driverName, dbURL)

	if err != nil {
		return err
	}

	defer sqlDB.Close()

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})

	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(database.Migrations, database.MigrationsDir(database.DialectPostgres))

	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)

	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
