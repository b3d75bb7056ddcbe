package request

import "time"

type TaskRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=1000"`
	DueDate     *time.Time `json:"dueDate" validate:"required"`
}

type CompleteTaskRequest struct {
	ID       int  `json:"id" validate:"required,gt=0"`
	Complete bool `json:"complete"`
}
