package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	availabilityapp "github.com/bundlecheck/backend/internal/application/availability"
	"github.com/bundlecheck/backend/internal/domain/availability"
	"github.com/bundlecheck/backend/internal/domain/catalog"
	"github.com/bundlecheck/backend/internal/domain/commerce"
	"github.com/bundlecheck/backend/internal/interfaces/http/dto"
	"github.com/bundlecheck/backend/internal/interfaces/http/middleware"
)

type fixedResolver struct {
	variants map[string]*availability.ResolvedVariant
	err      error
}

func (r *fixedResolver) Resolve(_ context.Context, sku string) (*availability.ResolvedVariant, error) {
	if r.err != nil {
		return nil, r.err
	}
	if v, ok := r.variants[sku]; ok {
		return v, nil
	}
	return nil, availability.ErrVariantNotFound
}

type fixedPlatform struct {
	levels    map[int64][]commerce.InventoryLevel
	levelsErr error
}

func (p *fixedPlatform) ListProducts(_ context.Context, _ string) (*commerce.ProductPage, error) {
	return &commerce.ProductPage{}, nil
}

func (p *fixedPlatform) ListInventoryLevels(_ context.Context, inventoryItemID int64) ([]commerce.InventoryLevel, error) {
	if p.levelsErr != nil {
		return nil, p.levelsErr
	}
	return p.levels[inventoryItemID], nil
}

func availableLevel(qty int64) commerce.InventoryLevel {
	return commerce.InventoryLevel{
		LocationID: 1,
		Available:  decimal.NewNullDecimal(decimal.NewFromInt(qty)),
	}
}

func newAvailabilityRouter(resolver *fixedResolver, platform *fixedPlatform) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := availabilityapp.NewCheckService(catalog.Default(), resolver, platform)
	h := NewAvailabilityHandler(service)

	router := gin.New()
	router.Use(middleware.StaticShopDomain("demo.myshopify.com"))
	router.POST("/api/availability/check", h.CheckBundle)
	router.GET("/api/availability/checks", h.ListChecks)
	return router
}

func bundleCheckBody() map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{
				"product_handle": "poster-frame",
				"quantity":       1,
				"properties": []map[string]string{
					{"name": "Option: Frame", "value": "Matte Black"},
					{"name": "Option: Size", "value": "18x24"},
				},
			},
			{
				"product_handle": "art-print",
				"quantity":       1,
				"properties": []map[string]string{
					{"name": "Option: Print", "value": "Harbor Dawn"},
					{"name": "Option: Size", "value": "18x24"},
				},
			},
		},
	}
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestAvailabilityHandler_CheckBundle_Available(t *testing.T) {
	resolver := &fixedResolver{variants: map[string]*availability.ResolvedVariant{
		"FRAME-MB-1824": {VariantID: 11, InventoryItemID: 101, TrackingMode: commerce.TrackingModePlatform},
		"PRINT-HD-1824": {VariantID: 22, InventoryItemID: 202, TrackingMode: commerce.TrackingModePlatform},
	}}
	platform := &fixedPlatform{levels: map[int64][]commerce.InventoryLevel{
		101: {availableLevel(5)},
		202: {availableLevel(5)},
	}}
	router := newAvailabilityRouter(resolver, platform)

	w := postJSON(t, router, "/api/availability/check", bundleCheckBody())

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["available"])
	assert.NotEmpty(t, data["check_id"])
	assert.Len(t, data["items"], 2)
}

func TestAvailabilityHandler_CheckBundle_OmittedQuantityDefaultsToOne(t *testing.T) {
	resolver := &fixedResolver{variants: map[string]*availability.ResolvedVariant{
		"FRAME-MB-1824": {VariantID: 11, InventoryItemID: 101, TrackingMode: commerce.TrackingModePlatform},
		"PRINT-HD-1824": {VariantID: 22, InventoryItemID: 202, TrackingMode: commerce.TrackingModePlatform},
	}}
	platform := &fixedPlatform{levels: map[int64][]commerce.InventoryLevel{
		101: {availableLevel(1)},
		202: {availableLevel(1)},
	}}
	router := newAvailabilityRouter(resolver, platform)

	body := bundleCheckBody()
	for _, item := range body["items"].([]map[string]any) {
		delete(item, "quantity")
	}

	w := postJSON(t, router, "/api/availability/check", body)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["available"])
	items := data["items"].([]interface{})
	require.Len(t, items, 2)
	for _, raw := range items {
		item := raw.(map[string]interface{})
		assert.Equal(t, "1", item["requested_quantity"])
	}
}

func TestAvailabilityHandler_CheckBundle_Unavailable(t *testing.T) {
	resolver := &fixedResolver{variants: map[string]*availability.ResolvedVariant{
		"FRAME-MB-1824": {VariantID: 11, InventoryItemID: 101, TrackingMode: commerce.TrackingModePlatform},
		"PRINT-HD-1824": {VariantID: 22, InventoryItemID: 202, TrackingMode: commerce.TrackingModePlatform},
	}}
	platform := &fixedPlatform{levels: map[int64][]commerce.InventoryLevel{
		101: {availableLevel(0)},
		202: {availableLevel(5)},
	}}
	router := newAvailabilityRouter(resolver, platform)

	w := postJSON(t, router, "/api/availability/check", bundleCheckBody())

	// An out-of-stock bundle is a successful check with a negative verdict
	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, false, data["available"])
	assert.NotEmpty(t, data["reason"])
}

func TestAvailabilityHandler_CheckBundle_BadJSON(t *testing.T) {
	router := newAvailabilityRouter(&fixedResolver{}, &fixedPlatform{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/availability/check", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityHandler_CheckBundle_WrongItemCount(t *testing.T) {
	router := newAvailabilityRouter(&fixedResolver{}, &fixedPlatform{})

	body := bundleCheckBody()
	body["items"] = body["items"].([]map[string]any)[:1]
	w := postJSON(t, router, "/api/availability/check", body)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeBusinessRule, resp.Error.Code)
}

func TestAvailabilityHandler_CheckBundle_UnknownProduct(t *testing.T) {
	router := newAvailabilityRouter(&fixedResolver{}, &fixedPlatform{})

	body := bundleCheckBody()
	body["items"].([]map[string]any)[0]["product_handle"] = "mystery-box"
	w := postJSON(t, router, "/api/availability/check", body)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAvailabilityHandler_CheckBundle_UpstreamFailure(t *testing.T) {
	resolver := &fixedResolver{variants: map[string]*availability.ResolvedVariant{
		"FRAME-MB-1824": {VariantID: 11, InventoryItemID: 101, TrackingMode: commerce.TrackingModePlatform},
		"PRINT-HD-1824": {VariantID: 22, InventoryItemID: 202, TrackingMode: commerce.TrackingModePlatform},
	}}
	platform := &fixedPlatform{levelsErr: commerce.ErrPlatformRequestFailed}
	router := newAvailabilityRouter(resolver, platform)

	w := postJSON(t, router, "/api/availability/check", bundleCheckBody())

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeUpstream, resp.Error.Code)
}

func TestAvailabilityHandler_CheckBundle_NoShopDomain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := availabilityapp.NewCheckService(catalog.Default(), &fixedResolver{}, &fixedPlatform{})
	h := NewAvailabilityHandler(service)

	router := gin.New()
	router.POST("/api/availability/check", h.CheckBundle)

	w := postJSON(t, router, "/api/availability/check", bundleCheckBody())

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAvailabilityHandler_ListChecks_Disabled(t *testing.T) {
	router := newAvailabilityRouter(&fixedResolver{}, &fixedPlatform{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/availability/checks", nil)
	router.ServeHTTP(w, req)

	// No audit repository wired: the endpoint reports the feature disabled
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeBusinessRule, resp.Error.Code)
}

func TestAvailabilityHandler_ListChecks_InvalidPage(t *testing.T) {
	router := newAvailabilityRouter(&fixedResolver{}, &fixedPlatform{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/availability/checks?page=-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
