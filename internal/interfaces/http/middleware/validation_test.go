package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlecheck/backend/internal/interfaces/http/dto"
)

// checkRequestShape mirrors the binding rules of a bundle check line.
type checkRequestShape struct {
	ProductHandle string `json:"product_handle" binding:"required"`
	Quantity      int64  `json:"quantity" binding:"omitempty,min=1"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()

	router := gin.New()
	router.POST("/api/v1/availability/check", func(c *gin.Context) {
		var req checkRequestShape
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(nil))
	})
	return router
}

func postValidation(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/availability/check", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationError(t *testing.T) {
	router := newValidationRouter()

	t.Run("reports each invalid field by its json name", func(t *testing.T) {
		w := postValidation(t, router, `{"quantity": -1}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		require.Len(t, resp.Error.Details, 2)

		fields := []string{resp.Error.Details[0].Field, resp.Error.Details[1].Field}
		assert.Contains(t, fields, "product_handle")
		assert.Contains(t, fields, "quantity")
	})

	t.Run("carries the request id when set", func(t *testing.T) {
		router := gin.New()
		router.POST("/check", func(c *gin.Context) {
			c.Set(RequestIDKey, "req-42")
			var req checkRequestShape
			if err := c.ShouldBindJSON(&req); err != nil {
				HandleValidationError(c, err)
			}
		})

		req := httptest.NewRequest("POST", "/check", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "req-42", resp.Error.RequestID)
	})

	t.Run("valid payload passes", func(t *testing.T) {
		w := postValidation(t, router, `{"product_handle": "mat-18x24", "quantity": 1}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("omitted quantity is not a validation failure", func(t *testing.T) {
		w := postValidation(t, router, `{"product_handle": "mat-18x24"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestValidationMessage(t *testing.T) {
	type shape struct {
		Required string `validate:"required"`
		Min      string `validate:"min=5"`
		MinInt   int64  `validate:"min=1"`
		Max      string `validate:"max=10"`
		OneOf    string `validate:"oneof=asc desc"`
		UUID     string `validate:"omitempty,uuid"`
	}

	v := validator.New()
	err := v.Struct(shape{Min: "ab", MinInt: 0, Max: "this is way too long", OneOf: "up", UUID: "nope"})
	require.Error(t, err)

	expected := map[string]string{
		"Required": "This field is required",
		"Min":      "Must be at least 5 characters",
		"MinInt":   "Must be at least 1",
		"Max":      "Must be at most 10 characters",
		"OneOf":    "Must be one of: asc desc",
		"UUID":     "Invalid UUID format",
	}

	for _, e := range err.(validator.ValidationErrors) {
		want, ok := expected[e.StructField()]
		require.True(t, ok, "unexpected failing field %s", e.StructField())
		assert.Equal(t, want, validationMessage(e))
	}
}
