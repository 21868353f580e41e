package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundlecheck/backend/internal/infrastructure/config"
)

const (
	testSecret = "shpss_test_secret_for_session_tokens"
	testAPIKey = "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"
	testShop   = "demo.myshopify.com"
)

func newTestService() *SessionTokenService {
	return NewSessionTokenService(config.AuthConfig{
		AppSecret: testSecret,
		AppAPIKey: testAPIKey,
		ClockSkew: 10 * time.Second,
	})
}

// mintToken signs a session token the way App Bridge would, with an
// optional mutation applied to the claims before signing.
func mintToken(t *testing.T, secret string, mutate func(*SessionClaims)) string {
	t.Helper()

	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://" + testShop + "/admin",
			Subject:   "42",
			Audience:  jwt.ClaimStrings{testAPIKey},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        "f6c5d4e3-b2a1-4f6c-8d9e-0a1b2c3d4e5f",
		},
		Dest: "https://" + testShop,
		Sid:  "session-abc",
	}
	if mutate != nil {
		mutate(claims)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerify_ValidToken(t *testing.T) {
	svc := newTestService()

	claims, err := svc.Verify(mintToken(t, testSecret, nil))
	require.NoError(t, err)

	assert.Equal(t, testShop, claims.ShopDomain())
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "session-abc", claims.Sid)
	assert.Greater(t, claims.GetRemainingTTL(), time.Duration(0))
}

func TestVerify_WrongSecret(t *testing.T) {
	svc := newTestService()

	_, err := svc.Verify(mintToken(t, "some-other-secret", nil))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	svc := newTestService()

	_, err := svc.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	svc := newTestService()

	token := mintToken(t, testSecret, func(c *SessionClaims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	})

	_, err := svc.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerify_ExpiredWithinSkew(t *testing.T) {
	svc := newTestService()

	// Expired 5s ago, inside the 10s leeway
	token := mintToken(t, testSecret, func(c *SessionClaims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-5 * time.Second))
	})

	_, err := svc.Verify(token)
	assert.NoError(t, err)
}

func TestVerify_NotYetValid(t *testing.T) {
	svc := newTestService()

	token := mintToken(t, testSecret, func(c *SessionClaims) {
		c.NotBefore = jwt.NewNumericDate(time.Now().Add(time.Minute))
	})

	_, err := svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestVerify_AudienceMismatch(t *testing.T) {
	svc := newTestService()

	token := mintToken(t, testSecret, func(c *SessionClaims) {
		c.Audience = jwt.ClaimStrings{"some-other-app"}
	})

	_, err := svc.Verify(token)
	assert.ErrorIs(t, err, ErrAudienceMismatch)
}

func TestVerify_AudienceNotCheckedWithoutAPIKey(t *testing.T) {
	svc := NewSessionTokenService(config.AuthConfig{AppSecret: testSecret})

	token := mintToken(t, testSecret, func(c *SessionClaims) {
		c.Audience = jwt.ClaimStrings{"some-other-app"}
	})

	_, err := svc.Verify(token)
	assert.NoError(t, err)
}

func TestVerify_MissingDest(t *testing.T) {
	svc := newTestService()

	token := mintToken(t, testSecret, func(c *SessionClaims) {
		c.Dest = ""
	})

	_, err := svc.Verify(token)
	assert.ErrorIs(t, err, ErrMissingDestination)
}

func TestVerify_DestNotAShopDomain(t *testing.T) {
	svc := newTestService()

	token := mintToken(t, testSecret, func(c *SessionClaims) {
		c.Dest = "https://evil.example.com"
		c.Issuer = "https://evil.example.com/admin"
	})

	_, err := svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidShopDomain)
}

func TestVerify_IssuerMismatch(t *testing.T) {
	svc := newTestService()

	token := mintToken(t, testSecret, func(c *SessionClaims) {
		c.Issuer = "https://other-shop.myshopify.com/admin"
	})

	_, err := svc.Verify(token)
	assert.ErrorIs(t, err, ErrIssuerMismatch)
}

func TestVerify_RejectsUnsignedToken(t *testing.T) {
	svc := newTestService()

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://" + testShop + "/admin",
			Audience:  jwt.ClaimStrings{testAPIKey},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Dest: "https://" + testShop,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestShopDomain_MalformedDest(t *testing.T) {
	claims := &SessionClaims{Dest: "://bad"}
	assert.Empty(t, claims.ShopDomain())
}
