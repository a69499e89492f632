package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// registrarFunc adapts a function to RouteRegistrar
type registrarFunc func(rg *gin.RouterGroup)

func (f registrarFunc) RegisterRoutes(rg *gin.RouterGroup) {
	f(rg)
}

func pingRoutes(path, body string) RouteRegistrar {
	return registrarFunc(func(rg *gin.RouterGroup) {
		rg.GET(path, func(c *gin.Context) {
			c.String(http.StatusOK, body)
		})
	})
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterRegister(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	r.Register(pingRoutes("/a", "a")).Register(pingRoutes("/b", "b"))

	assert.Len(t, r.registrars, 2)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))
	r.Register(pingRoutes("/catalog", "catalog")).Register(pingRoutes("/cart", "cart"))

	group := r.Setup()
	assert.Equal(t, "/api/v2", group.BasePath())

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/api/v2/catalog", http.StatusOK, "catalog"},
		{"/api/v2/cart", http.StatusOK, "cart"},
		{"/api/v1/catalog", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r := NewRouter(engine).Use(func(c *gin.Context) {
		c.Header("X-Test-Middleware", "applied")
		c.Next()
	})
	r.Register(pingRoutes("/items", "ok")).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/items", nil))
	assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, w.Header().Get("X-Test-Middleware"))
}

func TestNewEngine(t *testing.T) {
	newEngine := func(t *testing.T, httpCfg config.HTTPConfig) *gin.Engine {
		engine := NewEngine(EngineConfig{Logger: zaptest.NewLogger(t), HTTP: httpCfg})
		engine.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
		engine.POST("/echo", func(c *gin.Context) {
			var body map[string]any
			if err := c.ShouldBindJSON(&body); err != nil {
				c.Status(http.StatusBadRequest)
				return
			}
			c.JSON(http.StatusOK, body)
		})
		engine.GET("/panic", func(c *gin.Context) { panic("boom") })
		return engine
	}

	t.Run("assigns request id and security headers", func(t *testing.T) {
		engine := newEngine(t, config.HTTPConfig{})
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("keeps caller request id", func(t *testing.T) {
		engine := newEngine(t, config.HTTPConfig{})
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "req-123")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	})

	t.Run("recovers from panics", func(t *testing.T) {
		engine := newEngine(t, config.HTTPConfig{})
		w := httptest.NewRecorder()
		require.NotPanics(t, func() {
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("rejects oversized bodies", func(t *testing.T) {
		engine := newEngine(t, config.HTTPConfig{MaxBodySize: 16})
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"email":"someone@example.com"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("applies configured CORS origins", func(t *testing.T) {
		engine := newEngine(t, config.HTTPConfig{CORSAllowOrigins: []string{"https://shop.example.com"}})
		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set("Origin", "https://shop.example.com")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})
}
