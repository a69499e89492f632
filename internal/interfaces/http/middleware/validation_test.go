package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationProbe struct {
	Action  string `json:"action" binding:"required,oneof=increment decrement"`
	Product string `json:"product" binding:"max=5"`
}

func TestFormatValidationErrors(t *testing.T) {
	SetupValidator()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"explode","product":"too long name"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var probe validationProbe
	err := c.ShouldBindJSON(&probe)
	require.Error(t, err)

	resp := FormatValidationErrors(err, "req-1")

	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.ElementsMatch(t, []dto.ValidationDetail{
		{Field: "action", Message: "Must be one of: increment decrement"},
		{Field: "product", Message: "Must be at most 5 characters"},
	}, resp.Error.Details)
}

func TestFormatValidationErrors_NonFieldError(t *testing.T) {
	resp := FormatValidationErrors(errors.New("unexpected EOF"), "")

	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}
