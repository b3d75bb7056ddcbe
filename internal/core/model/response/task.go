package response

import (
	"time"

	"taskmanagement/internal/core/domain"
)

type TaskResponse struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"dueDate"`
	IsCompleted bool      `json:"isCompleted"`
}

func NewTaskResponse(item domain.TodoItem) TaskResponse {
	return TaskResponse{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		DueDate:     item.DueDate,
		IsCompleted: item.IsCompleted,
	}
}

func NewTaskListResponse(items []domain.TodoItem) []TaskResponse {
	tasks := make([]TaskResponse, 0, len(items))

	for _, item := range items {
		tasks = append(tasks, NewTaskResponse(item))
	}

	return tasks
}
