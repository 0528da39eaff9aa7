package middleware

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"pizza-franchise-api/config"
	"pizza-franchise-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
	ErrRevokedToken = errors.New("revoked token")
)

type Claims struct {
	UserID uint               `json:"userId"`
	Name   string             `json:"name"`
	Email  string             `json:"email"`
	Roles  []models.RoleGrant `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims carry the given role, ignoring scope
func (c *Claims) HasRole(r models.Role) bool {
	for _, g := range c.Roles {
		if g.Role == r {
			return true
		}
	}
	return false
}

// revocations is the process-wide registry of logged-out token IDs.
// Readers are every authenticated request; writers are logouts. A
// revoke that has returned is visible to all subsequent validations.
var revocations = struct {
	mu   sync.RWMutex
	jtis map[string]time.Time
}{jtis: make(map[string]time.Time)}

// RevokeToken invalidates one session by its token ID. Idempotent;
// other sessions of the same user stay valid.
func RevokeToken(claims *Claims) {
	if claims.ID == "" {
		return
	}
	revocations.mu.Lock()
	if _, ok := revocations.jtis[claims.ID]; !ok {
		revocations.jtis[claims.ID] = time.Now()
	}
	revocations.mu.Unlock()
}

// IsRevoked checks a token ID against the revocation registry
func IsRevoked(jti string) bool {
	revocations.mu.RLock()
	_, ok := revocations.jtis[jti]
	revocations.mu.RUnlock()
	return ok
}

// GenerateToken creates a signed JWT for a given user. Each call embeds
// a fresh token ID so one session can be revoked without the others.
func GenerateToken(user *models.User) (string, error) {
	claims := Claims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Roles:  user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.JWTSecret)
}

// ParseToken verifies signature and expiry, then checks the token ID
// against the revocation registry
func ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return config.JWTSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if IsRevoked(claims.ID) {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// AuthRequired validates the bearer token and injects claims into the
// context. Malformed, expired, and revoked tokens all read the same to
// the client.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
			c.Abort()
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := ParseToken(tokenStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
			c.Abort()
			return
		}
		c.Set("claims", claims)
		c.Next()
	}
}

// GetClaims extracts the validated token claims from the context
func GetClaims(c *gin.Context) *Claims {
	val, _ := c.Get("claims")
	return val.(*Claims)
}
