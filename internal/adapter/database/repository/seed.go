package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskmanagement/internal/core/domain"
)

func initialTodoItems(now time.Time) []domain.TodoItem {
	due := now.Add(7 * 24 * time.Hour)

	return []domain.TodoItem{
		domain.NewTodoItem("Clean the dishes", "Wash all the dirty dishes, dry them, and put them away", due),
		domain.NewTodoItem("Wash dirty clothes", "Put all dirty clothes in the washing machine", due),
	}
}

// SeedTodoItems inserts the starter tasks when the table is empty and
// returns how many rows were added.
func SeedTodoItems(ctx context.Context, uow *UnitOfWork, now time.Time) (int, error) {
	repo := GetRepository[domain.TodoItem](uow)

	existing, err := Select(repo, nil, func(item domain.TodoItem) int { return item.ID }).Count(ctx)

	if err != nil {
		return 0, fmt.Errorf("count todo items: %w", err)
	}

	if existing > 0 {
		return 0, nil
	}

	added := 0

	for _, item := range initialTodoItems(now) {
		if _, err := repo.Add(ctx, item); err != nil {
			return added, fmt.Errorf("seed %q: %w", item.Title, err)
		}
		added++
	}

	slog.InfoContext(ctx, "Seeded todo items", "count", added)

	return added, nil
}
