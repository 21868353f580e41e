package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// newCheckEngine builds a router shaped like the availability API, with the
// metrics middleware installed from the given meter.
func newCheckEngine(mp *sdkmetric.MeterProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	engine.POST("/api/v1/availability/check", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"available": true})
	})
	engine.GET("/api/v1/availability/checks", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"items": []string{}})
	})
	return engine
}

func TestHTTPMetrics_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: false}))
	engine.GET("/api/v1/availability/checks", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability/checks", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetrics_RecordsRequestCount(t *testing.T) {
	mp, reader := setupTestMeter(t)
	engine := newCheckEngine(mp)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/availability/check",
			strings.NewReader(`{"items":[]}`))
		req.Header.Set("Content-Type", "application/json")
		engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)

	attrs := sum.DataPoints[0].Attributes
	v, found := attrs.Value("http.route")
	require.True(t, found)
	assert.Equal(t, "/api/v1/availability/check", v.AsString())
	v, found = attrs.Value("http.status_code")
	require.True(t, found)
	assert.Equal(t, int64(http.StatusOK), v.AsInt64())
}

func TestHTTPMetrics_RecordsDurationAndSizes(t *testing.T) {
	mp, reader := setupTestMeter(t)
	engine := newCheckEngine(mp)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/availability/check",
		strings.NewReader(`{"items":[{"product_handle":"poster-frame"}]}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	rm := collectMetrics(t, reader)
	assert.NotNil(t, findMetricByName(rm, "http_server_request_duration_seconds"))
	assert.NotNil(t, findMetricByName(rm, "http_server_request_size_bytes"))
	assert.NotNil(t, findMetricByName(rm, "http_server_response_size_bytes"))
}

func TestHTTPMetrics_LabelsShopDomain(t *testing.T) {
	mp, reader := setupTestMeter(t)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(StaticShopDomain("demo.myshopify.com"))
	engine.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	engine.GET("/api/v1/availability/checks", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability/checks", nil)
	engine.ServeHTTP(w, req)

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)

	v, found := sum.DataPoints[0].Attributes.Value("shop_domain")
	require.True(t, found)
	assert.Equal(t, "demo.myshopify.com", v.AsString())
}

func TestHTTPMetrics_UnmatchedRouteUsesUnknown(t *testing.T) {
	mp, reader := setupTestMeter(t)
	engine := newCheckEngine(mp)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)

	v, found := sum.DataPoints[0].Attributes.Value("http.route")
	require.True(t, found)
	assert.Equal(t, "unknown", v.AsString())
}

func TestHTTPMetrics_ActiveRequestsReturnToZero(t *testing.T) {
	mp, reader := setupTestMeter(t)
	engine := newCheckEngine(mp)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability/checks", nil)
	engine.ServeHTTP(w, req)

	rm := collectMetrics(t, reader)
	m := findMetricByName(rm, "http_server_active_requests")
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}
