package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bundlecheck/backend/internal/infrastructure/auth"
	"github.com/bundlecheck/backend/internal/infrastructure/logger"
)

// Session token context keys
const (
	SessionClaimsKey = "session_claims"
	ShopDomainKey    = "shop_domain"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// SessionTokenMiddlewareConfig holds configuration for session token middleware
type SessionTokenMiddlewareConfig struct {
	// TokenService is required for token verification
	TokenService *auth.SessionTokenService
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	// Optional callback if token is invalid (default: return 401)
	OnError func(c *gin.Context, err error)
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultSessionTokenConfig returns default session token middleware configuration
func DefaultSessionTokenConfig(tokenService *auth.SessionTokenService) SessionTokenMiddlewareConfig {
	return SessionTokenMiddlewareConfig{
		TokenService: tokenService,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/metrics",
		},
		OnError: nil,
		Logger:  nil,
	}
}

// SessionTokenAuthMiddleware creates session token authentication middleware
func SessionTokenAuthMiddleware(tokenService *auth.SessionTokenService) gin.HandlerFunc {
	return SessionTokenAuthMiddlewareWithConfig(DefaultSessionTokenConfig(tokenService))
}

// SessionTokenAuthMiddlewareWithConfig creates session token authentication
// middleware with custom config. On success the verified shop domain is set
// in the gin context and the request context, so downstream handlers and
// logs are scoped to the shop the token was minted for.
func SessionTokenAuthMiddlewareWithConfig(cfg SessionTokenMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := cfg.TokenService.Verify(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err, "Session token verification failed")
			return
		}

		shopDomain := claims.ShopDomain()
		c.Set(SessionClaimsKey, claims)
		c.Set(ShopDomainKey, shopDomain)

		// Also set in request context for logger
		ctx := c.Request.Context()
		ctx, _ = logger.WithShopDomain(ctx, logger.FromContext(ctx), shopDomain)
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("Session token verified",
				zap.String("shop_domain", shopDomain),
			)
		}

		c.Next()
	}
}

// StaticShopDomain sets a fixed shop domain on every request. Used when
// session token verification is disabled and the service fronts a single
// configured shop.
func StaticShopDomain(shopDomain string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ShopDomainKey, shopDomain)

		ctx := c.Request.Context()
		ctx, _ = logger.WithShopDomain(ctx, logger.FromContext(ctx), shopDomain)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// handleAuthError handles authentication errors
func handleAuthError(c *gin.Context, cfg SessionTokenMiddlewareConfig, err error, message string) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("Session token authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	errorCode := "UNAUTHORIZED"
	errorMessage := "Authentication required"

	switch err {
	case auth.ErrExpiredToken:
		errorCode = "TOKEN_EXPIRED"
		errorMessage = "Session token has expired"
	case auth.ErrInvalidToken:
		errorCode = "INVALID_TOKEN"
		errorMessage = "Invalid session token"
	case auth.ErrTokenNotYetValid:
		errorCode = "TOKEN_NOT_VALID"
		errorMessage = "Session token is not yet valid"
	case auth.ErrAudienceMismatch:
		errorCode = "INVALID_TOKEN"
		errorMessage = "Session token was issued for a different app"
	case auth.ErrIssuerMismatch, auth.ErrMissingDestination, auth.ErrInvalidShopDomain:
		errorCode = "INVALID_TOKEN"
		errorMessage = "Session token is not bound to a valid shop"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    errorCode,
			"message": errorMessage,
		},
	})
}

// GetSessionClaims retrieves verified session claims from gin.Context
func GetSessionClaims(c *gin.Context) *auth.SessionClaims {
	if claims, exists := c.Get(SessionClaimsKey); exists {
		if sessionClaims, ok := claims.(*auth.SessionClaims); ok {
			return sessionClaims
		}
	}
	return nil
}

// GetShopDomain retrieves the verified shop domain from gin.Context
func GetShopDomain(c *gin.Context) string {
	if shopDomain, exists := c.Get(ShopDomainKey); exists {
		if domain, ok := shopDomain.(string); ok {
			return domain
		}
	}
	return ""
}
