package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Role names carried in the access token.
const (
	RoleCitizen       = "CITIZEN"
	RoleWorker        = "WORKER"
	RoleDistrictAdmin = "DISTRICT_ADMIN"
	RoleLocalityAdmin = "LOCALITY_ADMIN"
)

// RequireRoles gates a route to the listed roles
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		authCtx, ok := GetAuthContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth context missing"})
			return
		}

		if !allowed[authCtx.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}

		c.Next()
	}
}

// RequireAdmin gates a route to district or locality admins
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(RoleDistrictAdmin, RoleLocalityAdmin)
}
