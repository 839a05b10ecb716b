package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"conduit/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token claim values stamped on every access token.
const (
	TokenIssuer   = "conduit-api"
	TokenAudience = "conduit-client"
)

// Fiber locals populated by the auth middleware.
const (
	LocalUserID      = "userID"
	LocalTokenID     = "tokenID"
	LocalTokenExpiry = "tokenExpiry"
)

var errInvalidToken = errors.New("invalid or expired token")

// AccessToken is the verified content of a bearer token.
type AccessToken struct {
	UserID    uint
	ID        string
	ExpiresAt time.Time
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager signing with secret.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token whose subject is userID.
func (m *TokenManager) Issue(userID uint, username string) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"exp":      now.Add(m.ttl).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies signature, expiry, issuer and audience.
func (m *TokenManager) Parse(tokenString string) (*AccessToken, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, errInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, errInvalidToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errInvalidToken
	}
	jti, _ := claims["jti"].(string)

	return &AccessToken{UserID: uint(userID), ID: jti, ExpiresAt: exp.Time}, nil
}

// ExtractToken pulls the credential out of an "Authorization: Token x" or
// "Authorization: Bearer x" header value.
func ExtractToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return ""
	}
	switch strings.ToLower(scheme) {
	case "token", "bearer":
		return strings.TrimSpace(token)
	default:
		return ""
	}
}

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

func (m *TokenManager) authenticate(c *fiber.Ctx, revoked RevocationChecker) (*AccessToken, error) {
	raw := ExtractToken(c.Get(fiber.HeaderAuthorization))
	if raw == "" {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	tok, err := m.Parse(raw)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	if revoked != nil && tok.ID != "" {
		isRevoked, err := revoked.IsRevoked(c.UserContext(), tok.ID)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "revocation check failed", "error", err)
		} else if isRevoked {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	return tok, nil
}

func storeIdentity(c *fiber.Ctx, tok *AccessToken) {
	c.Locals(LocalUserID, tok.UserID)
	c.Locals(LocalTokenID, tok.ID)
	c.Locals(LocalTokenExpiry, tok.ExpiresAt)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, tok.UserID))
}

// AuthRequired rejects requests without a valid, unrevoked token.
func AuthRequired(m *TokenManager, revoked RevocationChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok, err := m.authenticate(c, revoked)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		storeIdentity(c, tok)
		return c.Next()
	}
}

// OptionalAuth records the caller's identity when a valid token is present
// and lets anonymous requests through untouched.
func OptionalAuth(m *TokenManager, revoked RevocationChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		if tok, err := m.authenticate(c, revoked); err == nil {
			storeIdentity(c, tok)
		}
		return c.Next()
	}
}

// UserID returns the authenticated user id stored by the auth middleware.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok && id != 0
}
