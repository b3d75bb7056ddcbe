package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"taskmanagement/internal/adapter/database"
	"taskmanagement/internal/adapter/database/repository"
	. "taskmanagement/internal/adapter/http/helper"
	"taskmanagement/internal/adapter/http/middleware"
	"taskmanagement/internal/adapter/http/validation"
	"taskmanagement/internal/core/domain"
	"taskmanagement/internal/core/model/request"
	"taskmanagement/internal/core/model/response"
	"taskmanagement/internal/core/port"
	"taskmanagement/internal/core/util"
	"taskmanagement/pkg/config"
	"taskmanagement/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var errWriteRejected = errors.New("write rejected by repository")

// CacheInvalidator drops cached task responses after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type TaskHandler struct {
	db        *database.DB
	telemetry port.Telemetry
	validator port.Validator
	cache     CacheInvalidator
	Logger    *config.LokiLogger
}

// NewTaskHandler wires the task endpoints. cache may be nil.
func NewTaskHandler(db *database.DB, telemetry port.Telemetry, cache CacheInvalidator, logger *config.LokiLogger) *TaskHandler {
	return &TaskHandler{
		db:        db,
		telemetry: telemetry,
		validator: validation.NewStructValidator(),
		cache:     cache,
		Logger:    logger,
	}
}

// tasks resolves the task repository from the request's unit of work.
func (h *TaskHandler) tasks(c *gin.Context) port.Repository[domain.TodoItem] {
	uow, ok := middleware.GetUnitOfWork(c)

	if !ok {
		uow = repository.NewUnitOfWork(h.db, h.telemetry)
		middleware.SetUnitOfWork(c, uow)
	}

	return repository.GetRepository[domain.TodoItem](uow)
}

func (h *TaskHandler) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}

	if err := h.cache.Invalidate(ctx); err != nil {
		h.Logger.WarnWithTrace(ctx, "Failed to invalidate task cache", zap.Error(err))
	}
}

func (h *TaskHandler) fail(c *gin.Context, ctx context.Context, message string, err error) {
	h.Logger.ErrorWithTrace(ctx, message, zap.Error(err))
	SendInternalError(c, message)
}

// pathID parses :id, answering with a validation problem when it is not an
// integer.
func (h *TaskHandler) pathID(c *gin.Context) (int, bool) {
	raw := c.Param("id")
	id, err := strconv.Atoi(raw)

	if err != nil {
		SendValidationProblem(c, map[string][]string{
			"id": {"The value '" + raw + "' is not valid."},
		})
		return 0, false
	}

	return id, true
}

// bindTask decodes and validates a task payload, answering 400 itself on
// failure.
func (h *TaskHandler) bindTask(c *gin.Context) (request.TaskRequest, bool) {
	params, err := util.ParamsToMap[request.TaskRequest](c)

	if err != nil {
		SendBodyInvalidError(c)
		return params, false
	}

	if err := h.validator.ValidateStruct(params); err != nil {
		SendValidationProblem(c, h.validator.FormatValidationErrors(err))
		return params, false
	}

	return params, true
}

func (h *TaskHandler) GetAll(c *gin.Context) {
	ctx, span := tracing.CreateChildSpan(c.Request.Context(), "handler.task.get_all", nil)
	defer span.End()

	items, err := h.tasks(c).Find(ctx, nil)

	if err != nil {
		tracing.AddSpanError(span, err)
		h.fail(c, ctx, "Failed to list tasks", err)
		return
	}

	span.SetAttributes(attribute.Int("tasks.count", len(items)))

	SendSuccess(c, http.StatusOK, response.NewTaskListResponse(items))
}

func (h *TaskHandler) GetCompleted(c *gin.Context) {
	ctx, span := tracing.CreateChildSpan(c.Request.Context(), "handler.task.get_completed", nil)
	defer span.End()

	completed := repository.Select(h.tasks(c), func(item domain.TodoItem) bool {
		return item.IsCompleted
	}, response.NewTaskResponse)

	tasks, err := completed.ToSlice(ctx)

	if err != nil {
		tracing.AddSpanError(span, err)
		h.fail(c, ctx, "Failed to list completed tasks", err)
		return
	}

	span.SetAttributes(attribute.Int("tasks.count", len(tasks)))

	SendSuccess(c, http.StatusOK, tasks)
}

func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	ctx, span := tracing.CreateChildSpan(c.Request.Context(), "handler.task.get_by_id", []attribute.KeyValue{
		attribute.Int("task.id", id),
	})
	defer span.End()

	item, found, err := h.tasks(c).FindOne(ctx, id)

	if err != nil {
		tracing.AddSpanError(span, err)
		h.fail(c, ctx, "Failed to load task", err)
		return
	}

	if !found {
		SendNotFound(c, id)
		return
	}

	SendSuccess(c, http.StatusOK, response.NewTaskResponse(item))
}

func (h *TaskHandler) Create(c *gin.Context) {
	ctx, span := tracing.CreateChildSpan(c.Request.Context(), "handler.task.create", nil)
	defer span.End()

	params, ok := h.bindTask(c)
	if !ok {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return
	}

	created, err := h.tasks(c).Add(ctx, domain.NewTodoItem(params.Title, params.Description, *params.DueDate))

	if err != nil {
		tracing.AddSpanError(span, err)
		h.fail(c, ctx, "Failed to create task", err)
		return
	}

	span.SetAttributes(attribute.Int("task.id", created.ID))
	h.invalidate(ctx)

	SendSuccess(c, http.StatusCreated, response.NewTaskResponse(created))
}

func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	ctx, span := tracing.CreateChildSpan(c.Request.Context(), "handler.task.update", []attribute.KeyValue{
		attribute.Int("task.id", id),
	})
	defer span.End()

	params, ok := h.bindTask(c)
	if !ok {
		return
	}

	tasks := h.tasks(c)
	item, found, err := tasks.FindOne(ctx, id)

	if err != nil {
		tracing.AddSpanError(span, err)
		h.fail(c, ctx, "Failed to load task", err)
		return
	}

	if !found {
		SendNotFound(c, id)
		return
	}

	item.Title = params.Title
	item.Description = params.Description
	item.DueDate = *params.DueDate

	if !tasks.Update(ctx, item) {
		h.fail(c, ctx, "Failed to update task", domain.NewPersistenceError("Update", item.TableName(), errWriteRejected))
		return
	}

	h.invalidate(ctx)

	SendSuccess(c, http.StatusOK, response.NewTaskResponse(item))
}

// Complete marks a single task as done.
func (h *TaskHandler) Complete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	ctx, span := tracing.CreateChildSpan(c.Request.Context(), "handler.task.complete", []attribute.KeyValue{
		attribute.Int("task.id", id),
	})
	defer span.End()

	tasks := h.tasks(c)
	item, found, err := tasks.FindOne(ctx, id)

	if err != nil {
		tracing.AddSpanError(span, err)
		h.fail(c, ctx, "Failed to load task", err)
		return
	}

	if !found {
		SendNotFound(c, id)
		return
	}

	if err := item.Complete(); err != nil {
		if errors.Is(err, domain.ErrAlreadyCompleted) {
			SendBadRequestMessage(c, err.Error())
			return
		}

		h.fail(c, ctx, "Failed to complete task", err)
		return
	}

	if !tasks.Update(ctx, item) {
		h.fail(c, ctx, "Failed to complete task", domain.NewPersistenceError("Update", item.TableName(), errWriteRejected))
		return
	}

	h.invalidate(ctx)

	SendSuccess(c, http.StatusOK, response.NewTaskResponse(item))
}

// CompleteTasks sets the completion flag of several tasks in one batch.
// Nothing is written unless every referenced task exists.
func (h *TaskHandler) CompleteTasks(c *gin.Context) {
	ctx, span := tracing.CreateChildSpan(c.Request.Context(), "handler.task.complete_tasks", nil)
	defer span.End()

	params, err := util.ParamsToMap[[]request.CompleteTaskRequest](c)

	if err != nil {
		SendBodyInvalidError(c)
		return
	}

	problems := make(map[string][]string)

	for i, entry := range params {
		if err := h.validator.ValidateStruct(entry); err != nil {
			validation.Merge(problems, validation.FormatIndexedValidationErrors(i, err))
		}
	}

	if len(problems) > 0 {
		SendValidationProblem(c, problems)
		return
	}

	span.SetAttributes(attribute.Int("tasks.requested", len(params)))

	requested := make(map[int]bool, len(params))
	for _, entry := range params {
		requested[entry.ID] = entry.Complete
	}

	tasks := h.tasks(c)
	items, err := tasks.Find(ctx, func(item domain.TodoItem) bool {
		_, ok := requested[item.ID]
		return ok
	})

	if err != nil {
		tracing.AddSpanError(span, err)
		h.fail(c, ctx, "Failed to load tasks", err)
		return
	}

	existing := make(map[int]bool, len(items))
	for _, item := range items {
		existing[item.ID] = true
	}

	missing := make([]int, 0)
	seen := make(map[int]bool)

	for _, entry := range params {
		if !existing[entry.ID] && !seen[entry.ID] {
			missing = append(missing, entry.ID)
			seen[entry.ID] = true
		}
	}

	if len(missing) > 0 {
		span.SetAttributes(attribute.Int("tasks.missing", len(missing)))
		SendNotFound(c, missing)
		return
	}

	for i := range items {
		items[i].IsCompleted = requested[items[i].ID]
	}

	if !tasks.Update(ctx, items...) {
		h.fail(c, ctx, "Failed to complete tasks", domain.NewPersistenceError("Update", domain.TodoItemTable, errWriteRejected))
		return
	}

	if len(items) > 0 {
		h.invalidate(ctx)
	}

	SendSuccess(c, http.StatusOK, response.NewTaskListResponse(items))
}

func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	ctx, span := tracing.CreateChildSpan(c.Request.Context(), "handler.task.delete", []attribute.KeyValue{
		attribute.Int("task.id", id),
	})
	defer span.End()

	tasks := h.tasks(c)
	item, found, err := tasks.FindOne(ctx, id)

	if err != nil {
		tracing.AddSpanError(span, err)
		h.fail(c, ctx, "Failed to load task", err)
		return
	}

	if !found {
		SendNotFound(c, id)
		return
	}

	if !tasks.Delete(ctx, item) {
		h.fail(c, ctx, "Failed to delete task", domain.NewPersistenceError("Delete", item.TableName(), errWriteRejected))
		return
	}

	h.invalidate(ctx)

	SendNoContent(c)
}

func (h *TaskHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.db.Ping(ctx); err != nil {
		h.Logger.ErrorWithTrace(ctx, "Database health check failed", zap.Error(err))
		SendServiceUnavailable(c, response.HealthResponse{Status: "unavailable", Database: "unreachable"})
		return
	}

	SendSuccess(c, http.StatusOK, response.HealthResponse{Status: "ok", Database: "ok"})
}
