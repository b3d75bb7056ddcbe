package util

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
)

type payload struct {
	Title string `json:"title"`
}

func contextWithBody(body string) *gin.Context {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request, _ = http.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	return c
}

func TestParamsToMap(t *testing.T) {
	RegisterTestingT(t)

	params, err := ParamsToMap[payload](contextWithBody(`{"title":"hello"}`))

	Expect(err).To(BeNil())
	Expect(params.Title).To(Equal("hello"))
}

func TestParamsToMap_EmptyBody(t *testing.T) {
	for _, body := range []string{"", "   ", "null", " null\n"} {
		_, err := ParamsToMap[payload](contextWithBody(body))
		assert.ErrorIs(t, err, ErrEmptyBody, "body %q", body)
	}
}

func TestParamsToMap_Malformed(t *testing.T) {
	RegisterTestingT(t)

	_, err := ParamsToMap[payload](contextWithBody(`{"title":`))
	Expect(err).ToNot(BeNil())
	Expect(err).ToNot(MatchError(ErrEmptyBody))

	_, err = ParamsToMap[[]payload](contextWithBody(`{"title":"not a list"}`))
	Expect(err).ToNot(BeNil())
}
