package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func paginationContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestPaginationParams(t *testing.T) {
	limit, offset := paginationParams(paginationContext("/?limit=5&offset=10"), 20)
	assert.Equal(t, 5, limit)
	assert.Equal(t, 10, offset)
}

func TestPaginationParamsDefaults(t *testing.T) {
	limit, offset := paginationParams(paginationContext("/"), 20)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)
}

func TestPaginationParamsIgnoresInvalidValues(t *testing.T) {
	limit, offset := paginationParams(paginationContext("/?limit=abc&offset=-4"), 50)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, offset)
}
