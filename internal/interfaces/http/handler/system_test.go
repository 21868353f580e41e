package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlecheck/backend/internal/interfaces/http/dto"
)

func serveSystem(t *testing.T, handle gin.HandlerFunc, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, target, nil)

	handle(c)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	return w, data
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewSystemHandler()

	w, data := serveSystem(t, h.GetSystemInfo, "/system/info")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BundleCheck API", data["name"])
	assert.Equal(t, "1.0.0", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandler_Ping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewSystemHandler()

	w, data := serveSystem(t, h.Ping, "/system/ping")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", data["message"])

	timestamp, ok := data["timestamp"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, timestamp)
	assert.NoError(t, err)
}
