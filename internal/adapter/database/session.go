package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// Executor is satisfied by both *sql.DB and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Session is the persistence context shared by every repository of one
// unit of work. Statements outside Transaction run in autocommit mode, so
// each write is committed as soon as it returns.
type Session struct {
	ID      string
	db      *DB
	scanner *Scanner
}

func NewSession(db *DB) *Session {
	return &Session{
		ID:      uuid.New().String(),
		db:      db,
		scanner: NewScanner(),
	}
}

func (s *Session) DB() *DB {
	return s.db
}

func (s *Session) Dialect() Dialect {
	return s.db.Dialect
}

func (s *Session) Builder() squirrel.StatementBuilderType {
	return *s.db.QueryBuilder
}

func (s *Session) Scanner() *Scanner {
	return s.scanner
}

func (s *Session) Executor() Executor {
	return s.db.DB
}

// Transaction runs fn inside a database transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (s *Session) Transaction(ctx context.Context, fn func(exec Executor) error) error {
	tx, err := s.db.BeginTx(ctx, nil)

	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
