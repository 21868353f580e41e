package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bundlecheck/backend/internal/domain/commerce"
	"github.com/bundlecheck/backend/internal/domain/shared"
	"github.com/bundlecheck/backend/internal/interfaces/http/dto"
	"github.com/bundlecheck/backend/internal/interfaces/http/middleware"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader(RequestIDKey); id != "" {
		return id
	}
	return ""
}

// getShopDomain extracts the shop domain set by the session token
// middleware (or the static shop domain when auth is disabled)
func getShopDomain(c *gin.Context) (string, error) {
	if shopDomain := middleware.GetShopDomain(c); shopDomain != "" {
		return shopDomain, nil
	}
	return "", errors.New("shop domain not found in context")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// HandleError converts domain errors, upstream platform errors, and
// unknown errors into HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	requestID := getRequestID(c)

	// errors.As so wrapped domain errors are still recognized
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		statusCode := dto.GetHTTPStatus(code)
		c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	// Commerce platform failures surface as gateway errors so callers can
	// distinguish them from faults in this service
	if code, ok := upstreamErrorCode(err); ok {
		statusCode := dto.GetHTTPStatus(code)
		c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, err.Error(), requestID))
		return
	}

	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}

// upstreamErrorCode maps commerce platform errors to API error codes
func upstreamErrorCode(err error) (string, bool) {
	switch {
	case errors.Is(err, commerce.ErrPlatformRateLimited):
		return dto.ErrCodeUpstreamRateLimited, true
	case errors.Is(err, commerce.ErrPlatformAuthFailed),
		errors.Is(err, commerce.ErrPlatformRequestFailed),
		errors.Is(err, commerce.ErrPlatformInvalidResponse),
		errors.Is(err, commerce.ErrPlatformNotConfigured):
		return dto.ErrCodeUpstream, true
	}
	return "", false
}
