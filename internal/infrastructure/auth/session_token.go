package auth

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bundlecheck/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken       = errors.New("invalid session token")
	ErrExpiredToken       = errors.New("session token has expired")
	ErrTokenNotYetValid   = errors.New("session token is not yet valid")
	ErrInvalidClaims      = errors.New("invalid session token claims")
	ErrAudienceMismatch   = errors.New("session token audience does not match app api key")
	ErrMissingDestination = errors.New("missing dest claim in session token")
	ErrIssuerMismatch     = errors.New("session token issuer does not match destination shop")
	ErrInvalidShopDomain  = errors.New("dest claim is not a myshopify.com shop domain")
)

// SessionClaims represents the claims carried by a Shopify session token.
// Tokens are minted by App Bridge per request: iss is the shop's admin URL,
// dest is the shop origin, and aud is the app's API key.
type SessionClaims struct {
	jwt.RegisteredClaims
	Dest string `json:"dest"`
	Sid  string `json:"sid,omitempty"`
}

// ShopDomain returns the shop's myshopify.com domain extracted from the
// dest claim. Empty if the claim is absent or malformed.
func (c *SessionClaims) ShopDomain() string {
	u, err := url.Parse(c.Dest)
	if err != nil {
		return ""
	}
	return u.Host
}

// GetExpiresAtTime returns the token's expiration time as time.Time
func (c *SessionClaims) GetExpiresAtTime() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// GetRemainingTTL returns the remaining time until the token expires
func (c *SessionClaims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(c.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SessionTokenService verifies Shopify session tokens
type SessionTokenService struct {
	secret    []byte
	apiKey    string
	clockSkew time.Duration
}

// NewSessionTokenService creates a new session token verifier
func NewSessionTokenService(cfg config.AuthConfig) *SessionTokenService {
	skew := cfg.ClockSkew
	if skew == 0 {
		skew = 10 * time.Second
	}

	return &SessionTokenService{
		secret:    []byte(cfg.AppSecret),
		apiKey:    cfg.AppAPIKey,
		clockSkew: skew,
	}
}

// Verify validates a session token's signature and claims and returns
// the parsed claims. The shop the token is bound to is available via
// SessionClaims.ShopDomain().
func (s *SessionTokenService) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithLeeway(s.clockSkew))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	if err := s.validateClaims(claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// validateClaims checks the Shopify-specific invariants: the audience is
// this app, dest names a myshopify.com shop, and iss points at the same
// shop's admin.
func (s *SessionTokenService) validateClaims(claims *SessionClaims) error {
	if s.apiKey != "" {
		if !containsAudience(claims.Audience, s.apiKey) {
			return ErrAudienceMismatch
		}
	}

	if claims.Dest == "" {
		return ErrMissingDestination
	}

	destURL, err := url.Parse(claims.Dest)
	if err != nil || destURL.Host == "" {
		return ErrInvalidClaims
	}
	if !strings.HasSuffix(destURL.Host, ".myshopify.com") {
		return ErrInvalidShopDomain
	}

	issURL, err := url.Parse(claims.Issuer)
	if err != nil || issURL.Host != destURL.Host {
		return ErrIssuerMismatch
	}

	return nil
}

func containsAudience(aud jwt.ClaimStrings, apiKey string) bool {
	for _, a := range aud {
		if a == apiKey {
			return true
		}
	}
	return false
}
