package middleware

import (
	"taskmanagement/internal/adapter/database"
	"taskmanagement/internal/adapter/database/repository"
	"taskmanagement/internal/core/port"

	"github.com/gin-gonic/gin"
)

const unitOfWorkKey = "unit_of_work"

// UnitOfWorkMiddleware opens one unit of work per request. It lives exactly
// as long as the request and is never shared with another one.
func UnitOfWorkMiddleware(db *database.DB, telemetry port.Telemetry) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetUnitOfWork(c, repository.NewUnitOfWork(db, telemetry))
		c.Next()
	}
}

func SetUnitOfWork(c *gin.Context, uow *repository.UnitOfWork) {
	c.Set(unitOfWorkKey, uow)
}

func GetUnitOfWork(c *gin.Context) (*repository.UnitOfWork, bool) {
	value, ok := c.Get(unitOfWorkKey)
	if !ok {
		return nil, false
	}

	uow, ok := value.(*repository.UnitOfWork)
	return uow, ok
}
