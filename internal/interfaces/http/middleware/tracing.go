// Package middleware provides HTTP middleware for the availability API.
package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Caps on header-sourced trace attributes; values past these limits are
// truncated or dropped rather than recorded.
const (
	MaxRequestIDLength  = 128
	MaxShopDomainLength = 255
)

// shopDomainRegex validates myshopify.com shop domains taken from headers.
var shopDomainRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

// TracingConfig configures the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// TracingWithConfig wraps otelgin and enriches each span with request_id
// and shop_domain so a slow check can be traced back to the shop that
// submitted it. Spans are named "METHOD route_pattern" by otelgin, e.g.
// "POST /api/v1/availability/check".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	base := otelgin.Middleware(cfg.ServiceName)

	return func(c *gin.Context) {
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpanWithAttributes(c, span)
		}
	}
}

func enrichSpanWithAttributes(c *gin.Context, span trace.Span) {
	if requestID := getRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if shopDomain := getTracedShopDomain(c); shopDomain != "" {
		span.SetAttributes(attribute.String("shop_domain", shopDomain))
	}
}

// getRequestID prefers the ID set by the RequestID middleware and falls
// back to the raw header, truncated to MaxRequestIDLength.
func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok && id != "" {
			return id
		}
	}

	headerID := c.GetHeader("X-Request-ID")
	if len(headerID) > MaxRequestIDLength {
		return headerID[:MaxRequestIDLength]
	}
	return headerID
}

// getTracedShopDomain reads the shop domain set by the session token
// middleware or, for unauthenticated requests, the X-Shop-Domain header.
// Header values must look like a myshopify.com domain before they land
// in a span.
func getTracedShopDomain(c *gin.Context) string {
	if shopDomain, exists := c.Get(ShopDomainKey); exists {
		if domain, ok := shopDomain.(string); ok && domain != "" {
			return domain
		}
	}

	headerDomain := c.GetHeader("X-Shop-Domain")
	if headerDomain != "" && isValidShopDomain(headerDomain) {
		return headerDomain
	}
	return ""
}

func isValidShopDomain(shopDomain string) bool {
	if len(shopDomain) > MaxShopDomainLength {
		return false
	}
	return shopDomainRegex.MatchString(shopDomain)
}

// SpanErrorMarker marks the span as errored for 4xx/5xx responses. Place
// it after TracingWithConfig so the span already exists.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		statusCode := c.Writer.Status()
		if statusCode < http.StatusBadRequest {
			return
		}

		var errorMessage string
		switch {
		case statusCode >= http.StatusInternalServerError:
			errorMessage = "Internal Server Error"
		case statusCode == http.StatusUnauthorized:
			errorMessage = "Unauthorized"
		case statusCode == http.StatusForbidden:
			errorMessage = "Forbidden"
		case statusCode == http.StatusNotFound:
			errorMessage = "Not Found"
		default:
			errorMessage = "Client Error"
		}

		span.SetStatus(codes.Error, errorMessage)
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
	}
}

// TracingAttributeInjector re-enriches the span after authentication has
// run, so shop_domain from a verified session token is recorded even
// though the session middleware sits later in the chain than tracing.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpanWithAttributes(c, span)
		}
		c.Next()
	}
}
