package port

import (
	"context"
)

// Entity is implemented by every type persisted through a Repository.
type Entity interface {
	TableName() string
	PrimaryKey() int
	ToMap() map[string]interface{}
}

// Predicate selects entities. A nil Predicate matches everything.
type Predicate[T any] func(T) bool

func All[T any]() Predicate[T] {
	return func(T) bool { return true }
}

func (p Predicate[T]) Matches(entity T) bool {
	return p == nil || p(entity)
}

// Repository gives collection-like access to one entity type.
//
// Add reports failures to the caller as a *domain.PersistenceError. Update
// and Delete absorb persistence failures and only report success.
type Repository[T Entity] interface {
	Find(ctx context.Context, predicate Predicate[T]) ([]T, error)
	FindOne(ctx context.Context, id int) (T, bool, error)
	Add(ctx context.Context, entity T) (T, error)
	Update(ctx context.Context, entities ...T) bool
	Delete(ctx context.Context, entity T) bool
}
