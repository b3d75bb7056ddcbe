package repository

import (
	"context"

	"taskmanagement/internal/core/port"
)

// Query is a deferred projection over a repository. Building it does not
// touch the store; every terminal call runs exactly one Find.
type Query[R any] struct {
	load    func(ctx context.Context) ([]R, error)
	filters []func(R) bool
}

// Select projects the entities matching predicate through selector.
func Select[T port.Entity, R any](repo port.Repository[T], predicate port.Predicate[T], selector func(T) R) *Query[R] {
	return &Query[R]{
		load: func(ctx context.Context) ([]R, error) {
			entities, err := repo.Find(ctx, predicate)

			if err != nil {
				return nil, err
			}

			projected := make([]R, 0, len(entities))
			for _, entity := range entities {
				projected = append(projected, selector(entity))
			}

			return projected, nil
		},
	}
}

// Where returns a new query further filtered on the projected values.
func (q *Query[R]) Where(filter func(R) bool) *Query[R] {
	filters := make([]func(R) bool, 0, len(q.filters)+1)
	filters = append(filters, q.filters...)
	filters = append(filters, filter)

	return &Query[R]{load: q.load, filters: filters}
}

func (q *Query[R]) ToSlice(ctx context.Context) ([]R, error) {
	values, err := q.load(ctx)

	if err != nil {
		return nil, err
	}

	result := make([]R, 0, len(values))

	for _, value := range values {
		if q.keep(value) {
			result = append(result, value)
		}
	}

	return result, nil
}

func (q *Query[R]) Count(ctx context.Context) (int, error) {
	values, err := q.ToSlice(ctx)

	if err != nil {
		return 0, err
	}

	return len(values), nil
}

// FirstOrDefault returns the first value, or the zero value and false when
// the query is empty.
func (q *Query[R]) FirstOrDefault(ctx context.Context) (R, bool, error) {
	var zero R

	values, err := q.ToSlice(ctx)

	if err != nil || len(values) == 0 {
		return zero, false, err
	}

	return values[0], true, nil
}

func (q *Query[R]) keep(value R) bool {
	for _, filter := range q.filters {
		if !filter(value) {
			return false
		}
	}

	return true
}
