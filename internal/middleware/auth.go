package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"reviewhub/internal/auth"
	"reviewhub/internal/policy"
)

// Context keys set by the authentication middlewares.
const (
	CtxUserID   = "userID"
	CtxUsername = "username"
	CtxRole     = "role"
)

// Authenticate requires a valid bearer access token and stores the caller's
// identity in the gin context.
func Authenticate(tokens *auth.AccessTokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, tokens)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization header"})
			c.Abort()
			return
		}
		setActor(c, claims)
		c.Next()
	}
}

// AuthenticateOptional resolves the caller when a bearer token is present
// and lets anonymous requests through untouched. A token that is present
// but invalid is still rejected.
func AuthenticateOptional(tokens *auth.AccessTokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		claims, ok := parseBearer(c, tokens)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		setActor(c, claims)
		c.Next()
	}
}

// RequireRole checks that the authenticated caller holds at least the given
// role. Mount after Authenticate.
func RequireRole(min policy.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleValue, exists := c.Get(CtxRole)
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "role not found in token"})
			c.Abort()
			return
		}

		roleName, ok := roleValue.(string)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid role format"})
			c.Abort()
			return
		}

		role, err := policy.ParseRole(roleName)
		if err != nil || !role.AtLeast(min) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":    "insufficient permissions",
				"required": min.String(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// Actor reads the caller's identity out of the gin context. ok is false for
// anonymous requests.
func Actor(c *gin.Context) (userID string, role policy.Role, ok bool) {
	idValue, exists := c.Get(CtxUserID)
	if !exists {
		return "", 0, false
	}
	userID, _ = idValue.(string)

	roleName, _ := c.Get(CtxRole)
	name, _ := roleName.(string)
	role, err := policy.ParseRole(name)
	if err != nil {
		return "", 0, false
	}
	return userID, role, userID != ""
}

func parseBearer(c *gin.Context, tokens *auth.AccessTokens) (*auth.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false
	}

	// format: "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := tokens.Parse(parts[1])
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setActor(c *gin.Context, claims *auth.Claims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxUsername, claims.Username)
	c.Set(CtxRole, claims.Role)
}
