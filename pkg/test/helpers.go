package test

import (
	"context"
	"fmt"
	"log"
	"testing"

	"taskmanagement/internal/adapter/database"
	"taskmanagement/internal/adapter/database/sqlite"

	"github.com/google/uuid"
)

// InitTestDB opens a private, migrated in-memory sqlite database. The pool
// is pinned to one connection so every statement sees the same memory
// database.
func InitTestDB() *database.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	db, err := sqlite.NewDB(sqlite.Config{
		Path:         dsn,
		DBName:       "taskmanagement_test",
		MaxOpenConns: 1,
	})

	if err != nil {
		log.Fatal(err)
	}

	return db
}

// SetupTestDB is InitTestDB bound to the lifetime of t.
func SetupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db := InitTestDB()

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// CleanDB empties every application table, leaving migrations in place.
func CleanDB(t *testing.T, db *database.DB) {
	t.Helper()

	ctx := context.Background()

	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT IN ('sqlite_sequence', 'schema_migrations')")
	if err != nil {
		t.Fatalf("Failed to query tables: %v", err)
	}

	var tables []string

	for rows.Next() {
		var table string

		if err := rows.Scan(&table); err != nil {
			rows.Close()
			t.Fatalf("Failed to scan table name: %v", err)
		}

		tables = append(tables, table)
	}

	if err := rows.Err(); err != nil {
		t.Fatalf("Error iterating over rows: %v", err)
	}

	rows.Close()

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("Failed to execute delete for table %s: %v", table, err)
		}
	}
}
