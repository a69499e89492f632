package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("storefront", "1.0.0")
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
	assert.Empty(t, h.checks)
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("storefront", "1.0.0")
	c, w := newTestContext(t)

	h.GetSystemInfo(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "storefront", data["name"])
	assert.Equal(t, "1.0.0", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandler_Health(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		checks     map[string]HealthCheck
		wantStatus int
		wantHealth string
		wantChecks map[string]string
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
		{
			name:       "passing check",
			checks:     map[string]HealthCheck{"database": func() error { return nil }},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
			wantChecks: map[string]string{"database": "ok"},
		},
		{
			name: "failing check",
			checks: map[string]HealthCheck{
				"database": func() error { return nil },
				"redis":    func() error { return errors.New("connection refused") },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
			wantChecks: map[string]string{"database": "ok", "redis": "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler("storefront", "1.0.0")
			h.now = func() time.Time { return fixed }
			for name, check := range tt.checks {
				h.AddCheck(name, check)
			}
			c, w := newTestContext(t)

			h.Health(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantHealth, resp.Status)
			assert.Equal(t, "2026-05-01T12:00:00Z", resp.Time)
			assert.Equal(t, tt.wantChecks, resp.Checks)
		})
	}
}

func TestSystemHandler_RegisterRoutes(t *testing.T) {
	engine := gin.New()
	NewSystemHandler("storefront", "1.0.0").RegisterRoutes(engine.Group("/api/v1"))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/system/info", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
