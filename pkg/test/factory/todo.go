package factory

import (
	"maps"
	"time"

	fab "github.com/Goldziher/fabricator"
)

// NewTodoItem builds a T with random content. Callers override fields by
// name; the id starts at zero unless overridden so the value can be inserted.
func NewTodoItem[T any](customData ...map[string]any) T {
	instance := fab.New(*new(T))

	overrides := map[string]any{
		"ID":          0,
		"DueDate":     time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second),
		"IsCompleted": false,
	}

	for _, data := range customData {
		maps.Copy(overrides, data)
	}

	return instance.Build(overrides)
}
