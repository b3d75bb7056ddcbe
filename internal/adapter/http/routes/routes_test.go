package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "taskmanagement/pkg/test"

	"taskmanagement/internal/adapter/http/handler"
	"taskmanagement/pkg/config"

	. "github.com/onsi/gomega"
)

func TestSetupRouterForTests_RegistersTaskRoutes(t *testing.T) {
	RegisterTestingT(t)

	db := SetupTestDB(t)
	router := SetupRouterForTests(HandlersConfig{
		TaskHandler: handler.NewTaskHandler(db, nil, nil, config.NewNopLokiLogger()),
		DB:          db,
	})

	registered := map[string]bool{}
	for _, route := range router.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, route := range []string{
		"GET /health",
		"GET /task",
		"GET /task/completedTasks",
		"GET /task/:id",
		"POST /task",
		"POST /task/completeTasks",
		"PUT /task/:id",
		"PUT /task/:id/complete",
		"DELETE /task/:id",
	} {
		Expect(registered).To(HaveKey(route))
	}
}

func TestCORSPreflight(t *testing.T) {
	RegisterTestingT(t)

	router := SetupRouterForTests(HandlersConfig{})

	rr := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/task", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	router.ServeHTTP(rr, req)

	Expect(rr.Code).To(Equal(http.StatusNoContent))
	Expect(rr.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
}
