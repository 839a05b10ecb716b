package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, id string) (bool, error) {
	return r[id], nil
}

type failingRevocations struct{}

func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func signRaw(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)

	raw, err := m.Issue(42, "jake")
	require.NoError(t, err)

	tok, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, uint(42), tok.UserID)
	assert.NotEmpty(t, tok.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)
}

func TestTokenManager_ParseRejects(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	valid := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": "7",
			"iss": TokenIssuer,
			"aud": TokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}

	tests := []struct {
		name  string
		token func() string
	}{
		{"wrong secret", func() string { return signRaw(t, valid(), "other-secret") }},
		{"expired", func() string {
			c := valid()
			c["exp"] = time.Now().Add(-time.Minute).Unix()
			return signRaw(t, c, testSecret)
		}},
		{"missing exp", func() string {
			c := valid()
			delete(c, "exp")
			return signRaw(t, c, testSecret)
		}},
		{"wrong issuer", func() string {
			c := valid()
			c["iss"] = "someone-else"
			return signRaw(t, c, testSecret)
		}},
		{"wrong audience", func() string {
			c := valid()
			c["aud"] = "someone-else"
			return signRaw(t, c, testSecret)
		}},
		{"non numeric subject", func() string {
			c := valid()
			c["sub"] = "abc"
			return signRaw(t, c, testSecret)
		}},
		{"garbage", func() string { return "not-a-jwt" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Parse(tt.token())
			assert.Error(t, err)
		})
	}
}

func TestExtractToken(t *testing.T) {
	assert.Equal(t, "abc", ExtractToken("Token abc"))
	assert.Equal(t, "abc", ExtractToken("Bearer abc"))
	assert.Equal(t, "abc", ExtractToken("bearer  abc "))
	assert.Equal(t, "", ExtractToken("Basic dXNlcjpwYXNz"))
	assert.Equal(t, "", ExtractToken("abc"))
	assert.Equal(t, "", ExtractToken(""))
}

func TestAuthRequired(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	revoked := revokedSet{}

	app := fiber.New()
	app.Get("/test", AuthRequired(m, revoked), func(c *fiber.Ctx) error {
		id, _ := UserID(c)
		return c.JSON(fiber.Map{"userID": id})
	})

	good, err := m.Issue(123, "jake")
	require.NoError(t, err)
	revokedRaw, err := m.Issue(124, "jane")
	require.NoError(t, err)
	revokedTok, err := m.Parse(revokedRaw)
	require.NoError(t, err)
	revoked[revokedTok.ID] = true

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{"token scheme", "Token " + good, http.StatusOK, 123},
		{"bearer scheme", "Bearer " + good, http.StatusOK, 123},
		{"missing header", "", http.StatusUnauthorized, 0},
		{"invalid format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"invalid token", "Token nope", http.StatusUnauthorized, 0},
		{"revoked token", "Token " + revokedRaw, http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, float64(tt.expectedUserID), body["userID"])
			}
		})
	}
}

func TestAuthRequired_RevocationStoreFailureIsNotFatal(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	app := fiber.New()
	app.Get("/test", AuthRequired(m, failingRevocations{}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	raw, err := m.Issue(1, "jake")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Token "+raw)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestOptionalAuth(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour)
	app := fiber.New()
	app.Get("/test", OptionalAuth(m, nil), func(c *fiber.Ctx) error {
		id, ok := UserID(c)
		return c.JSON(fiber.Map{"authenticated": ok, "userID": id})
	})

	raw, err := m.Issue(9, "jake")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		authed bool
	}{
		{"anonymous", "", false},
		{"valid token", "Token " + raw, true},
		{"broken token stays anonymous", "Token broken", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.authed, body["authenticated"])
		})
	}
}
