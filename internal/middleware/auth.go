package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sakutaro/tanabota/internal/auth"
)

const (
	// userIDKey is the gin context key for the authenticated user ID.
	userIDKey = "auth.user_id"
	// emailKey is the gin context key for the authenticated user's email.
	emailKey = "auth.email"
)

// UserID extracts the authenticated user ID from the gin context.
// Returns 0 if the request is unauthenticated.
func UserID(c *gin.Context) int64 {
	id, _ := c.Get(userIDKey)
	userID, _ := id.(int64)
	return userID
}

// Email extracts the authenticated user's email from the gin context.
func Email(c *gin.Context) string {
	v, _ := c.Get(emailKey)
	email, _ := v.(string)
	return email
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth validates the Bearer token and aborts with 401 when missing
// or invalid. On success the user ID and email are added to the context.
func RequireAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": auth.ErrMissingToken.Error()})
			return
		}

		claims, err := jwtManager.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": auth.ErrInvalidToken.Error()})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(emailKey, claims.Email)
		c.Next()
	}
}

// OptionalAuth validates the Bearer token if present but never rejects the
// request. Handlers see an unauthenticated context when the token is
// absent or invalid.
func OptionalAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := jwtManager.Validate(token); err == nil {
				c.Set(userIDKey, claims.UserID)
				c.Set(emailKey, claims.Email)
			}
		}
		c.Next()
	}
}
