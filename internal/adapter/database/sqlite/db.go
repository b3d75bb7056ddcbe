package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"taskmanagement/internal/adapter/database"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel"
)

const driverName = "sqlite3"

type Config struct {
	Path       string
	DBName     string
	LogQueries bool

	// MaxOpenConns overrides the pool size. In-memory databases need 1.
	MaxOpenConns int
}

// NewDB opens the database at cfg.Path with tracing enabled and brings the
// schema up to date.
func NewDB(cfg Config) (*database.DB, error) {
	if cfg.Path == "" {
		cfg.Path = "database.db"
	}

	if cfg.DBName == "" {
		cfg.DBName = "taskmanagement"
	}

	sqlDB, err := otelsql.Open(driverName, cfg.Path,
		otelsql.WithDBSystem("sqlite"),
		otelsql.WithDBName(cfg.DBName),
		otelsql.WithTracerProvider(otel.GetTracerProvider()),
	)

	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if cfg.LogQueries {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger := zerolog.New(os.Stdout).With().Timestamp().Str("db", cfg.DBName).Logger()

		sqlDB = sqldblogger.OpenDriver(cfg.Path, sqlDB.Driver(), zerologadapter.New(logger),
			sqldblogger.WithSQLQueryAsMessage(true),
		)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 100
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(min(5, maxOpen))

	if cfg.MaxOpenConns != 1 {
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	slog.Info("Database ready", "driver", "sqlite", "path", cfg.Path, "log_queries", cfg.LogQueries)

	return database.NewDB(sqlDB, database.DialectSQLite), nil
}

// RunMigrations applies the embedded sqlite migrations. The migrate
// instance is never closed since that would close db as well.
func RunMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})

	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	source, err := iofs.New(database.Migrations, database.MigrationsDir(database.DialectSQLite))

	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)

	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
