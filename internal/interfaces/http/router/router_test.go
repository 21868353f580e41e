package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	system := NewDomainGroup("system", "/system")
	system.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(system).Setup()

	w := serve(t, engine, "GET", "/api/v1/system/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("registers GET and POST routes", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("availability", "/availability")
		g.POST("/check", func(c *gin.Context) {
			c.String(http.StatusOK, "checked")
		}).GET("/checks", func(c *gin.Context) {
			c.String(http.StatusOK, "checks")
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusOK, serve(t, engine, "POST", "/api/v1/availability/check").Code)
		assert.Equal(t, http.StatusOK, serve(t, engine, "GET", "/api/v1/availability/checks").Code)
	})

	t.Run("applies group middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("availability", "/availability")
		g.Use(func(c *gin.Context) {
			c.Header("X-Shop-Domain", "demo.myshopify.com")
			c.Next()
		})
		g.GET("/checks", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(t, engine, "GET", "/api/v1/availability/checks")
		assert.Equal(t, "demo.myshopify.com", w.Header().Get("X-Shop-Domain"))
	})

	t.Run("route outside the group prefix is not matched", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("system", "/system")
		g.GET("/info", func(c *gin.Context) {
			c.String(http.StatusOK, "info")
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusNotFound, serve(t, engine, "GET", "/api/v1/info").Code)
	})
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	availability := NewDomainGroup("availability", "/availability")
	availability.POST("/check", func(c *gin.Context) {
		c.String(http.StatusOK, "checked")
	})

	system := NewDomainGroup("system", "/system")
	system.GET("/info", func(c *gin.Context) {
		c.String(http.StatusOK, "info")
	})

	r.Register(availability).Register(system).Setup()

	assert.Equal(t, http.StatusOK, serve(t, engine, "POST", "/api/v1/availability/check").Code)
	assert.Equal(t, http.StatusOK, serve(t, engine, "GET", "/api/v1/system/info").Code)
}
