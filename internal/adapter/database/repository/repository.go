package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"

	"taskmanagement/internal/adapter/database"
	"taskmanagement/internal/core/domain"
	"taskmanagement/internal/core/port"
	tel "taskmanagement/internal/core/telemetry"
)

// Repository is the database backed port.Repository for any entity type.
// It borrows the session of the unit of work that created it.
type Repository[T port.Entity] struct {
	session   *database.Session
	telemetry port.Telemetry
	table     string
}

func NewRepository[T port.Entity](session *database.Session, telemetry port.Telemetry) *Repository[T] {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	var zero T

	return &Repository[T]{
		session:   session,
		telemetry: telemetry,
		table:     zero.TableName(),
	}
}

func (r *Repository[T]) startSpan(ctx context.Context, operation string, attrs map[string]interface{}) (context.Context, port.Span) {
	base := map[string]interface{}{
		"db.system":  string(r.session.Dialect()),
		"db.table":   r.table,
		"session.id": r.session.ID,
	}

	for key, value := range attrs {
		base[key] = value
	}

	return r.telemetry.StartRepositorySpan(ctx, operation, r.table, base)
}

func (r *Repository[T]) fail(ctx context.Context, span port.Span, operation string, start time.Time, err error) {
	span.SetStatus("error", err.Error())
	span.RecordError(err)
	r.telemetry.RecordRepositoryOperation(ctx, operation, r.table, time.Since(start), err)
}

func (r *Repository[T]) succeed(ctx context.Context, span port.Span, operation string, start time.Time) {
	span.SetStatus("ok", "")
	r.telemetry.RecordRepositoryOperation(ctx, operation, r.table, time.Since(start), nil)
}

// Find loads the whole table and keeps the entities matching predicate.
// The result is never nil.
func (r *Repository[T]) Find(ctx context.Context, predicate port.Predicate[T]) ([]T, error) {
	ctx, span := r.startSpan(ctx, "Find", map[string]interface{}{
		"db.operation":   "SELECT",
		"find.predicate": predicate != nil,
	})
	defer span.End()

	start := time.Now()

	query, args, err := r.session.Builder().Select("*").
		From(r.table).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		r.fail(ctx, span, "Find", start, err)
		return []T{}, err
	}

	r.telemetry.RecordRepositoryQuery(ctx, "Find", r.table, query, args)

	rows, err := r.session.Executor().QueryContext(ctx, query, args...)

	if err != nil {
		r.fail(ctx, span, "Find", start, err)
		return []T{}, fmt.Errorf("query %s: %w", r.table, err)
	}

	defer rows.Close()

	var loaded []T

	if err := r.session.Scanner().ScanRowsToSlice(rows, &loaded); err != nil {
		r.fail(ctx, span, "Find", start, err)
		return []T{}, fmt.Errorf("scan %s: %w", r.table, err)
	}

	matches := make([]T, 0, len(loaded))

	for _, entity := range loaded {
		if predicate.Matches(entity) {
			matches = append(matches, entity)
		}
	}

	span.SetAttributes(map[string]interface{}{
		"db.rows_scanned":  len(loaded),
		"db.rows_returned": len(matches),
	})

	r.succeed(ctx, span, "Find", start)

	return matches, nil
}

// FindOne looks an entity up by primary key. A missing row is reported
// through the boolean, not as an error.
func (r *Repository[T]) FindOne(ctx context.Context, id int) (T, bool, error) {
	var entity T

	ctx, span := r.startSpan(ctx, "FindOne", map[string]interface{}{
		"db.operation": "SELECT",
		"entity.id":    id,
	})
	defer span.End()

	start := time.Now()

	query, args, err := r.session.Builder().Select("*").
		From(r.table).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		r.fail(ctx, span, "FindOne", start, err)
		return entity, false, err
	}

	r.telemetry.RecordRepositoryQuery(ctx, "FindOne", r.table, query, args)

	rows, err := r.session.Executor().QueryContext(ctx, query, args...)

	if err != nil {
		r.fail(ctx, span, "FindOne", start, err)
		return entity, false, fmt.Errorf("query %s: %w", r.table, err)
	}

	defer rows.Close()

	if err := r.session.Scanner().ScanRowToStruct(rows, &entity); err != nil {
		if isNoRows(err) {
			span.SetAttributes(map[string]interface{}{"db.found": false})
			r.succeed(ctx, span, "FindOne", start)
			return entity, false, nil
		}

		r.fail(ctx, span, "FindOne", start, err)
		return entity, false, fmt.Errorf("scan %s: %w", r.table, err)
	}

	span.SetAttributes(map[string]interface{}{"db.found": true})
	r.succeed(ctx, span, "FindOne", start)

	return entity, true, nil
}

// Add inserts entity, commits, and returns the stored copy carrying the
// generated id. Any failure comes back as a *domain.PersistenceError.
func (r *Repository[T]) Add(ctx context.Context, entity T) (T, error) {
	var zero T

	ctx, span := r.startSpan(ctx, "Add", map[string]interface{}{
		"db.operation": "INSERT",
	})
	defer span.End()

	start := time.Now()

	query, args, err := r.session.Builder().Insert(r.table).
		SetMap(entity.ToMap()).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		r.fail(ctx, span, "Add", start, err)
		return zero, domain.NewPersistenceError("Add", r.table, err)
	}

	r.telemetry.RecordRepositoryQuery(ctx, "Add", r.table, query, args)

	var id int64

	if err := r.session.Executor().QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		r.fail(ctx, span, "Add", start, err)
		slog.ErrorContext(ctx, "Insert failed", "table", r.table, "error", err)
		return zero, domain.NewPersistenceError("Add", r.table, err)
	}

	stored, found, err := r.FindOne(ctx, int(id))

	if err == nil && !found {
		err = fmt.Errorf("row %d vanished after insert", id)
	}

	if err != nil {
		r.fail(ctx, span, "Add", start, err)
		return zero, domain.NewPersistenceError("Add", r.table, err)
	}

	span.SetAttributes(map[string]interface{}{"entity.id": stored.PrimaryKey()})

	r.telemetry.RecordBusinessEvent(ctx, "created", r.table, strconv.Itoa(stored.PrimaryKey()), entity.ToMap())
	r.succeed(ctx, span, "Add", start)

	return stored, nil
}

// Update writes every entity in a single transaction. It reports false,
// leaving the store untouched, when any statement fails or matches no row.
func (r *Repository[T]) Update(ctx context.Context, entities ...T) bool {
	ctx, span := r.startSpan(ctx, "Update", map[string]interface{}{
		"db.operation":    "UPDATE",
		"update.entities": len(entities),
	})
	defer span.End()

	start := time.Now()

	err := r.session.Transaction(ctx, func(exec database.Executor) error {
		for _, entity := range entities {
			query, args, err := r.session.Builder().Update(r.table).
				SetMap(entity.ToMap()).
				Where(sq.Eq{"id": entity.PrimaryKey()}).
				ToSql()

			if err != nil {
				return err
			}

			r.telemetry.RecordRepositoryQuery(ctx, "Update", r.table, query, args)

			result, err := exec.ExecContext(ctx, query, args...)

			if err != nil {
				return err
			}

			affected, err := result.RowsAffected()

			if err != nil {
				return err
			}

			if affected == 0 {
				return fmt.Errorf("%s %d: %w", r.table, entity.PrimaryKey(), domain.ErrNotFound)
			}
		}

		return nil
	})

	if err != nil {
		perr := domain.NewPersistenceError("Update", r.table, err)
		r.fail(ctx, span, "Update", start, perr)
		slog.WarnContext(ctx, "Update discarded", "table", r.table, "entities", len(entities), "error", perr)
		return false
	}

	for _, entity := range entities {
		r.telemetry.RecordBusinessEvent(ctx, "updated", r.table, strconv.Itoa(entity.PrimaryKey()), entity.ToMap())
	}

	r.succeed(ctx, span, "Update", start)

	return true
}

// Delete removes entity and commits. It reports false when the row is
// missing or the statement fails.
func (r *Repository[T]) Delete(ctx context.Context, entity T) bool {
	ctx, span := r.startSpan(ctx, "Delete", map[string]interface{}{
		"db.operation": "DELETE",
		"entity.id":    entity.PrimaryKey(),
	})
	defer span.End()

	start := time.Now()

	query, args, err := r.session.Builder().Delete(r.table).
		Where(sq.Eq{"id": entity.PrimaryKey()}).
		ToSql()

	if err == nil {
		r.telemetry.RecordRepositoryQuery(ctx, "Delete", r.table, query, args)
		err = r.execAffectingOne(ctx, query, args, entity.PrimaryKey())
	}

	if err != nil {
		perr := domain.NewPersistenceError("Delete", r.table, err)
		r.fail(ctx, span, "Delete", start, perr)
		slog.WarnContext(ctx, "Delete discarded", "table", r.table, "id", entity.PrimaryKey(), "error", perr)
		return false
	}

	r.telemetry.RecordBusinessEvent(ctx, "deleted", r.table, strconv.Itoa(entity.PrimaryKey()), nil)
	r.succeed(ctx, span, "Delete", start)

	return true
}

func (r *Repository[T]) execAffectingOne(ctx context.Context, query string, args []interface{}, id int) error {
	result, err := r.session.Executor().ExecContext(ctx, query, args...)

	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()

	if err != nil {
		return err
	}

	if affected == 0 {
		return fmt.Errorf("%s %d: %w", r.table, id, domain.ErrNotFound)
	}

	return nil
}
