package domain

import (
	"time"
)

const TodoItemTable = "todo_items"

// TodoItem is a single task tracked by the service. ID is assigned by the
// database on insert and never changes afterwards.
type TodoItem struct {
	ID          int       `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	DueDate     time.Time `db:"due_date"`
	IsCompleted bool      `db:"is_completed"`
}

func NewTodoItem(title, description string, dueDate time.Time) TodoItem {
	return TodoItem{
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		IsCompleted: false,
	}
}

func (t TodoItem) TableName() string {
	return TodoItemTable
}

func (t TodoItem) PrimaryKey() int {
	return t.ID
}

// ToMap returns the writable columns. The id column is left out so inserts
// get a generated key and updates never rewrite it.
func (t TodoItem) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"title":        t.Title,
		"description":  t.Description,
		"due_date":     t.DueDate,
		"is_completed": t.IsCompleted,
	}
}

// Equal reports whether both items carry the same id and business fields.
// Due dates are compared as instants.
func (t TodoItem) Equal(other TodoItem) bool {
	return t.ID == other.ID &&
		t.Title == other.Title &&
		t.Description == other.Description &&
		t.DueDate.Equal(other.DueDate) &&
		t.IsCompleted == other.IsCompleted
}

// Complete marks the item as done. Completing an item twice is rejected.
func (t *TodoItem) Complete() error {
	if t.IsCompleted {
		return ErrAlreadyCompleted
	}

	t.IsCompleted = true

	return nil
}
