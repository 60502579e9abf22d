package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenCookie is the cookie the login endpoints set and the middleware reads.
const TokenCookie = "jwt"

// ContextOwnerKey is the gin context key holding the authenticated user ID.
const ContextOwnerKey = "ownerID"

// TokenFromRequest extracts the bearer token. A cookie-sourced token takes
// precedence over an Authorization header when both are present.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(TokenCookie); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value)
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Middleware rejects requests without a valid token and records the owner
// ID in the gin context for downstream handlers.
func Middleware(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c.Request)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "No token provided, authorization denied.",
			})
			return
		}

		claims, err := service.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token, authorization denied.",
			})
			return
		}

		c.Set(ContextOwnerKey, claims.Subject)
		c.Next()
	}
}

// OwnerID returns the authenticated user ID set by Middleware.
func OwnerID(c *gin.Context) string {
	value, _ := c.Get(ContextOwnerKey)
	owner, _ := value.(string)
	return owner
}
