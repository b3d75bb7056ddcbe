package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "taskmanagement/pkg/test"

	"taskmanagement/internal/adapter/database"
	"taskmanagement/internal/adapter/database/repository"
	"taskmanagement/internal/adapter/http/handler"
	"taskmanagement/internal/adapter/http/routes"
	"taskmanagement/internal/core/domain"
	"taskmanagement/internal/core/model/response"
	"taskmanagement/pkg/auth"
	"taskmanagement/pkg/config"
	factory "taskmanagement/pkg/test/factory"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) error {
	c.calls++
	return nil
}

type TaskHandlerTestSuite struct {
	suite.Suite
	DB     *database.DB
	Cache  *countingInvalidator
	Router *gin.Engine
}

func (s *TaskHandlerTestSuite) SetupTest() {
	s.DB = InitTestDB()
	s.Cache = &countingInvalidator{}

	taskHandler := handler.NewTaskHandler(s.DB, nil, s.Cache, config.NewNopLokiLogger())

	s.Router = routes.SetupRouterForTests(routes.HandlersConfig{
		TaskHandler: taskHandler,
		DB:          s.DB,
	})
}

func (s *TaskHandlerTestSuite) TearDownTest() {
	s.DB.Close()
}

func TestTaskHandlerTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TaskHandlerTestSuite))
}

func (s *TaskHandlerTestSuite) request(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader

	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	s.Router.ServeHTTP(rr, req)

	return rr
}

func (s *TaskHandlerTestSuite) createTodo(data map[string]any) domain.TodoItem {
	repo := repository.GetRepository[domain.TodoItem](repository.NewUnitOfWork(s.DB, nil))

	item, err := repo.Add(context.Background(), factory.NewTodoItem[domain.TodoItem](data))
	s.Require().NoError(err)

	return item
}

func (s *TaskHandlerTestSuite) findTodo(id int) (domain.TodoItem, bool) {
	repo := repository.GetRepository[domain.TodoItem](repository.NewUnitOfWork(s.DB, nil))

	item, found, err := repo.FindOne(context.Background(), id)
	s.Require().NoError(err)

	return item, found
}

func decode[T any](rr *httptest.ResponseRecorder) T {
	var value T
	Expect(json.Unmarshal(rr.Body.Bytes(), &value)).To(Succeed())
	return value
}

func validTask() map[string]any {
	return map[string]any{
		"title":       "Clean the dishes",
		"description": "Wash, dry and put them away",
		"dueDate":     "2030-05-01T10:00:00Z",
	}
}

func (s *TaskHandlerTestSuite) TestGetAll_Empty() {
	rr := s.request(http.MethodGet, "/task", nil)

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(rr.Body.String()).To(Equal("[]"))
}

func (s *TaskHandlerTestSuite) TestGetAll_ReturnsEveryTask() {
	s.createTodo(map[string]any{"Title": "first"})
	s.createTodo(map[string]any{"Title": "second", "IsCompleted": true})

	rr := s.request(http.MethodGet, "/task", nil)

	Expect(rr.Code).To(Equal(http.StatusOK))

	tasks := decode[[]response.TaskResponse](rr)
	Expect(tasks).To(HaveLen(2))
	Expect(tasks[0].Title).To(Equal("first"))
	Expect(tasks[1].IsCompleted).To(BeTrue())
}

func (s *TaskHandlerTestSuite) TestGetCompleted() {
	s.createTodo(map[string]any{"Title": "open"})
	done := s.createTodo(map[string]any{"Title": "done", "IsCompleted": true})

	rr := s.request(http.MethodGet, "/task/completedTasks", nil)

	Expect(rr.Code).To(Equal(http.StatusOK))

	tasks := decode[[]response.TaskResponse](rr)
	Expect(tasks).To(HaveLen(1))
	Expect(tasks[0].ID).To(Equal(done.ID))
	Expect(tasks[0].IsCompleted).To(BeTrue())
}

func (s *TaskHandlerTestSuite) TestGetCompleted_Empty() {
	s.createTodo(map[string]any{"Title": "open"})

	rr := s.request(http.MethodGet, "/task/completedTasks", nil)

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(rr.Body.String()).To(Equal("[]"))
}

func (s *TaskHandlerTestSuite) TestGetByID_Found() {
	item := s.createTodo(map[string]any{"Title": "find me"})

	rr := s.request(http.MethodGet, "/task/"+itoa(item.ID), nil)

	Expect(rr.Code).To(Equal(http.StatusOK))

	task := decode[response.TaskResponse](rr)
	Expect(task.ID).To(Equal(item.ID))
	Expect(task.Title).To(Equal("find me"))
	Expect(task.DueDate.Equal(item.DueDate)).To(BeTrue())
}

func (s *TaskHandlerTestSuite) TestGetByID_NotFound() {
	rr := s.request(http.MethodGet, "/task/999", nil)

	Expect(rr.Code).To(Equal(http.StatusNotFound))
	Expect(rr.Body.String()).To(Equal("999"))
}

func (s *TaskHandlerTestSuite) TestGetByID_InvalidID() {
	rr := s.request(http.MethodGet, "/task/abc", nil)

	Expect(rr.Code).To(Equal(http.StatusBadRequest))

	problem := decode[response.ValidationProblem](rr)
	Expect(problem.Errors).To(HaveKey("id"))
}

func (s *TaskHandlerTestSuite) TestCreate_Success() {
	rr := s.request(http.MethodPost, "/task", validTask())

	Expect(rr.Code).To(Equal(http.StatusCreated))

	task := decode[response.TaskResponse](rr)
	Expect(task.ID).To(BeNumerically(">", 0))
	Expect(task.Title).To(Equal("Clean the dishes"))
	Expect(task.IsCompleted).To(BeFalse())
	Expect(task.DueDate.Equal(time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC))).To(BeTrue())

	stored, found := s.findTodo(task.ID)
	Expect(found).To(BeTrue())
	Expect(stored.Description).To(Equal("Wash, dry and put them away"))
	Expect(s.Cache.calls).To(Equal(1))
}

func (s *TaskHandlerTestSuite) TestCreate_NullBody() {
	rr := s.request(http.MethodPost, "/task", "null")

	Expect(rr.Code).To(Equal(http.StatusBadRequest))

	problem := decode[response.ValidationProblem](rr)
	Expect(problem.Title).To(Equal("One or more validation errors occurred."))
	Expect(problem.Status).To(Equal(http.StatusBadRequest))
	Expect(problem.Errors).To(HaveLen(1))
	Expect(problem.Errors["*"]).To(ConsistOf("The request body is empty or not in the expected format."))
}

func (s *TaskHandlerTestSuite) TestCreate_EmptyBody() {
	rr := s.request(http.MethodPost, "/task", nil)

	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(decode[response.ValidationProblem](rr).Errors).To(HaveKey("*"))
}

func (s *TaskHandlerTestSuite) TestCreate_MalformedBody() {
	body := validTask()
	body["dueDate"] = "tomorrow"

	rr := s.request(http.MethodPost, "/task", body)

	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(decode[response.ValidationProblem](rr).Errors).To(HaveKey("*"))
	Expect(s.Cache.calls).To(Equal(0))
}

func (s *TaskHandlerTestSuite) TestCreate_FieldValidation() {
	rr := s.request(http.MethodPost, "/task", map[string]any{
		"description": "no title, no due date",
	})

	Expect(rr.Code).To(Equal(http.StatusBadRequest))

	problem := decode[response.ValidationProblem](rr)
	Expect(problem.Errors["title"]).To(ConsistOf("The title field is required."))
	Expect(problem.Errors).To(HaveKey("dueDate"))
	Expect(problem.Errors).ToNot(HaveKey("*"))

	items, _ := repository.GetRepository[domain.TodoItem](repository.NewUnitOfWork(s.DB, nil)).Find(context.Background(), nil)
	Expect(items).To(BeEmpty())
}

func (s *TaskHandlerTestSuite) TestUpdate_Success() {
	item := s.createTodo(map[string]any{"Title": "before", "IsCompleted": true})

	rr := s.request(http.MethodPut, "/task/"+itoa(item.ID), validTask())

	Expect(rr.Code).To(Equal(http.StatusOK))

	task := decode[response.TaskResponse](rr)
	Expect(task.ID).To(Equal(item.ID))
	Expect(task.Title).To(Equal("Clean the dishes"))
	Expect(task.IsCompleted).To(BeTrue())

	stored, _ := s.findTodo(item.ID)
	Expect(stored.Title).To(Equal("Clean the dishes"))
	Expect(s.Cache.calls).To(Equal(1))
}

func (s *TaskHandlerTestSuite) TestUpdate_NotFound() {
	rr := s.request(http.MethodPut, "/task/4242", validTask())

	Expect(rr.Code).To(Equal(http.StatusNotFound))
	Expect(rr.Body.String()).To(Equal("4242"))
}

func (s *TaskHandlerTestSuite) TestUpdate_InvalidBody() {
	item := s.createTodo(map[string]any{"Title": "keep"})

	rr := s.request(http.MethodPut, "/task/"+itoa(item.ID), "null")

	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(decode[response.ValidationProblem](rr).Errors).To(HaveKey("*"))

	stored, _ := s.findTodo(item.ID)
	Expect(stored.Title).To(Equal("keep"))
}

func (s *TaskHandlerTestSuite) TestUpdate_TitleTooLong() {
	item := s.createTodo(nil)

	body := validTask()
	body["title"] = string(bytes.Repeat([]byte("a"), 256))

	rr := s.request(http.MethodPut, "/task/"+itoa(item.ID), body)

	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(decode[response.ValidationProblem](rr).Errors).To(HaveKey("title"))
}

func (s *TaskHandlerTestSuite) TestComplete_Success() {
	item := s.createTodo(nil)

	rr := s.request(http.MethodPut, "/task/"+itoa(item.ID)+"/complete", nil)

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(decode[response.TaskResponse](rr).IsCompleted).To(BeTrue())

	stored, _ := s.findTodo(item.ID)
	Expect(stored.IsCompleted).To(BeTrue())
}

func (s *TaskHandlerTestSuite) TestComplete_AlreadyCompleted() {
	item := s.createTodo(map[string]any{"IsCompleted": true})

	rr := s.request(http.MethodPut, "/task/"+itoa(item.ID)+"/complete", nil)

	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(decode[string](rr)).To(Equal("Cannot complete a task that is already completed"))
	Expect(s.Cache.calls).To(Equal(0))
}

func (s *TaskHandlerTestSuite) TestComplete_NotFound() {
	rr := s.request(http.MethodPut, "/task/77/complete", nil)

	Expect(rr.Code).To(Equal(http.StatusNotFound))
	Expect(rr.Body.String()).To(Equal("77"))
}

func (s *TaskHandlerTestSuite) TestCompleteTasks_Success() {
	a := s.createTodo(nil)
	b := s.createTodo(map[string]any{"IsCompleted": true})

	rr := s.request(http.MethodPost, "/task/completeTasks", []map[string]any{
		{"id": a.ID, "complete": true},
		{"id": b.ID, "complete": false},
	})

	Expect(rr.Code).To(Equal(http.StatusOK))

	tasks := decode[[]response.TaskResponse](rr)
	Expect(tasks).To(HaveLen(2))

	storedA, _ := s.findTodo(a.ID)
	storedB, _ := s.findTodo(b.ID)
	Expect(storedA.IsCompleted).To(BeTrue())
	Expect(storedB.IsCompleted).To(BeFalse())
	Expect(s.Cache.calls).To(Equal(1))
}

func (s *TaskHandlerTestSuite) TestCompleteTasks_MissingIDs() {
	a := s.createTodo(nil)

	rr := s.request(http.MethodPost, "/task/completeTasks", []map[string]any{
		{"id": 900, "complete": true},
		{"id": a.ID, "complete": true},
		{"id": 901, "complete": true},
		{"id": 900, "complete": true},
	})

	Expect(rr.Code).To(Equal(http.StatusNotFound))
	Expect(decode[[]int](rr)).To(Equal([]int{900, 901}))

	stored, _ := s.findTodo(a.ID)
	Expect(stored.IsCompleted).To(BeFalse())
}

func (s *TaskHandlerTestSuite) TestCompleteTasks_SingleMissing() {
	rr := s.request(http.MethodPost, "/task/completeTasks", []map[string]any{
		{"id": 31, "complete": true},
	})

	Expect(rr.Code).To(Equal(http.StatusNotFound))
	Expect(rr.Body.String()).To(Equal("[31]"))
}

func (s *TaskHandlerTestSuite) TestCompleteTasks_InvalidEntries() {
	rr := s.request(http.MethodPost, "/task/completeTasks", []map[string]any{
		{"id": 1, "complete": true},
		{"id": -3, "complete": true},
	})

	Expect(rr.Code).To(Equal(http.StatusBadRequest))

	problem := decode[response.ValidationProblem](rr)
	Expect(problem.Errors).To(HaveKey("[1].id"))
	Expect(problem.Errors).ToNot(HaveKey("[0].id"))
}

func (s *TaskHandlerTestSuite) TestCompleteTasks_ZeroIDIsInvalid() {
	rr := s.request(http.MethodPost, "/task/completeTasks", []map[string]any{
		{"id": 0, "complete": true},
	})

	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(decode[response.ValidationProblem](rr).Errors).To(HaveKey("[0].id"))
}

func (s *TaskHandlerTestSuite) TestCompleteTasks_NullBody() {
	rr := s.request(http.MethodPost, "/task/completeTasks", "null")

	Expect(rr.Code).To(Equal(http.StatusBadRequest))
	Expect(decode[response.ValidationProblem](rr).Errors).To(HaveKey("*"))
}

func (s *TaskHandlerTestSuite) TestCompleteTasks_EmptyList() {
	rr := s.request(http.MethodPost, "/task/completeTasks", "[]")

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(rr.Body.String()).To(Equal("[]"))
}

func (s *TaskHandlerTestSuite) TestDelete_Success() {
	item := s.createTodo(nil)

	rr := s.request(http.MethodDelete, "/task/"+itoa(item.ID), nil)

	Expect(rr.Code).To(Equal(http.StatusNoContent))
	Expect(rr.Body.Len()).To(Equal(0))

	_, found := s.findTodo(item.ID)
	Expect(found).To(BeFalse())
	Expect(s.Cache.calls).To(Equal(1))
}

func (s *TaskHandlerTestSuite) TestDelete_NotFound() {
	rr := s.request(http.MethodDelete, "/task/5", nil)

	Expect(rr.Code).To(Equal(http.StatusNotFound))
	Expect(rr.Body.String()).To(Equal("5"))
}

func (s *TaskHandlerTestSuite) TestDelete_Twice() {
	item := s.createTodo(nil)

	Expect(s.request(http.MethodDelete, "/task/"+itoa(item.ID), nil).Code).To(Equal(http.StatusNoContent))
	Expect(s.request(http.MethodDelete, "/task/"+itoa(item.ID), nil).Code).To(Equal(http.StatusNotFound))
}

func (s *TaskHandlerTestSuite) TestStorageFailure() {
	s.DB.Close()

	rr := s.request(http.MethodGet, "/task", nil)
	Expect(rr.Code).To(Equal(http.StatusInternalServerError))

	problem := decode[response.ErrorResponse](rr)
	Expect(problem.Error.Code).To(Equal("INTERNAL_ERROR"))

	rr = s.request(http.MethodPost, "/task", validTask())
	Expect(rr.Code).To(Equal(http.StatusInternalServerError))

	rr = s.request(http.MethodGet, "/health", nil)
	Expect(rr.Code).To(Equal(http.StatusServiceUnavailable))
}

func (s *TaskHandlerTestSuite) TestHealth() {
	rr := s.request(http.MethodGet, "/health", nil)

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(decode[response.HealthResponse](rr).Status).To(Equal("ok"))
}

func TestTaskRoutes_RequireTokenWhenAuthEnabled(t *testing.T) {
	RegisterTestingT(t)

	db := SetupTestDB(t)
	jwt := auth.NewJWT("secret")

	router := routes.SetupRouterForTests(routes.HandlersConfig{
		TaskHandler: handler.NewTaskHandler(db, nil, nil, config.NewNopLokiLogger()),
		DB:          db,
		JWT:         jwt,
	})

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/task", nil)
	router.ServeHTTP(rr, req)
	Expect(rr.Code).To(Equal(http.StatusUnauthorized))

	token, err := jwt.CreateToken("client")
	Expect(err).To(BeNil())

	rr = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/task", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rr, req)
	Expect(rr.Code).To(Equal(http.StatusOK))

	rr = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
