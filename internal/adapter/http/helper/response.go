package helper

import (
	"net/http"

	. "taskmanagement/internal/adapter/http/validation"
	"taskmanagement/internal/core/model/response"

	"github.com/gin-gonic/gin"
)

func SendSuccess(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, data)
}

func SendNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func SendError(c *gin.Context, statusCode int, code string, errors []response.ValidationError, details ...any) {
	errorResponse := response.ErrorResponse{
		Error: response.ResponseError{
			Code:   code,
			Errors: errors,
		},
	}

	if len(details) > 0 {
		errorResponse.Error.Details = details[0]
	}

	c.JSON(statusCode, errorResponse)
}

// SendValidationProblem answers 400 with errors grouped by field.
func SendValidationProblem(c *gin.Context, errs map[string][]string) {
	c.JSON(http.StatusBadRequest, response.ValidationProblem{
		Title:  ProblemTitle,
		Status: http.StatusBadRequest,
		Errors: errs,
	})
}

// SendBodyInvalidError reports a missing, null or malformed body.
func SendBodyInvalidError(c *gin.Context) {
	SendValidationProblem(c, map[string][]string{
		BodyKey: {BodyInvalidMessage},
	})
}

// SendNotFound answers 404 carrying the identifier (or identifiers) that
// could not be resolved as the body.
func SendNotFound(c *gin.Context, id any) {
	c.JSON(http.StatusNotFound, id)
}

// SendBadRequestMessage answers 400 with a bare message string.
func SendBadRequestMessage(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, message)
}

func SendInternalError(c *gin.Context, message string, details ...any) {
	errors := []response.ValidationError{
		{
			Field:   "server",
			Message: message,
		},
	}

	SendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", errors, details...)
}

func SendServiceUnavailable(c *gin.Context, data any) {
	c.JSON(http.StatusServiceUnavailable, data)
}
