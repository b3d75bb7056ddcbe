package util

import (
	"bytes"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var ErrEmptyBody = errors.New("request body is empty")

// ParamsToMap decodes the JSON body into T. An absent body or a literal null
// is reported as ErrEmptyBody.
func ParamsToMap[T any](c *gin.Context) (T, error) {
	var params T

	raw, err := c.GetRawData()

	if err != nil {
		return params, err
	}

	trimmed := bytes.TrimSpace(raw)

	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return params, ErrEmptyBody
	}

	if err := binding.JSON.BindBody(trimmed, &params); err != nil {
		return params, err
	}

	return params, nil
}
