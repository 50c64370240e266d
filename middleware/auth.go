package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/swachhsetu/training-backend/config"
)

// AuthContext carries the caller identity resolved from the access token.
// Identity is issued by the external auth service; the role claim is
// trusted as given.
type AuthContext struct {
	UserID   string
	UserKind string // CITIZEN / WORKER / DISTRICT_ADMIN / LOCALITY_ADMIN
	Role     string
}

func (a AuthContext) IsAdmin() bool {
	return a.Role == RoleDistrictAdmin || a.Role == RoleLocalityAdmin
}

// AuthMiddleware validates the bearer token and sets the auth context
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTAccessSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			return
		}

		userID, _ := claims["user_id"].(string)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id missing in token"})
			return
		}
		userKind, _ := claims["user_kind"].(string)
		role, _ := claims["role"].(string)

		authCtx := AuthContext{
			UserID:   userID,
			UserKind: userKind,
			Role:     role,
		}

		c.Set("auth_context", authCtx)
		c.Set("user_id", userID)
		c.Set("claims", claims)

		c.Next()
	}
}

// GetAuthContext extracts the auth context set by AuthMiddleware.
func GetAuthContext(c *gin.Context) (AuthContext, bool) {
	raw, exists := c.Get("auth_context")
	if !exists {
		return AuthContext{}, false
	}
	authCtx, ok := raw.(AuthContext)
	return authCtx, ok
}
