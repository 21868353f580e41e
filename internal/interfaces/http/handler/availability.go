package handler

import (
	"github.com/gin-gonic/gin"

	availabilityapp "github.com/bundlecheck/backend/internal/application/availability"
	"github.com/bundlecheck/backend/internal/interfaces/http/middleware"
)

// AvailabilityHandler handles bundle availability API endpoints
type AvailabilityHandler struct {
	BaseHandler
	checkService *availabilityapp.CheckService
}

// NewAvailabilityHandler creates a new AvailabilityHandler
func NewAvailabilityHandler(checkService *availabilityapp.CheckService) *AvailabilityHandler {
	return &AvailabilityHandler{
		checkService: checkService,
	}
}

// CheckBundle decides whether a two-item bundle can currently be fulfilled.
// The request carries the cart lines with their raw line-item properties;
// the response is the per-item and overall verdict. Inventory is never
// modified by this endpoint.
func (h *AvailabilityHandler) CheckBundle(c *gin.Context) {
	shopDomain, err := getShopDomain(c)
	if err != nil {
		h.Unauthorized(c, "Shop could not be determined from the request")
		return
	}

	var req availabilityapp.CheckBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.checkService.Check(c.Request.Context(), shopDomain, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListChecks returns the persisted audit trail of past availability checks
func (h *AvailabilityHandler) ListChecks(c *gin.Context) {
	shopDomain, err := getShopDomain(c)
	if err != nil {
		h.Unauthorized(c, "Shop could not be determined from the request")
		return
	}

	var filter availabilityapp.CheckLogListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	// Checks are always scoped to the authenticated shop
	filter.ShopDomain = shopDomain

	result, err := h.checkService.ListChecks(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
