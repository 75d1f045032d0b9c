package middleware

import (
	"deogratias/contact-api/config"
	"deogratias/contact-api/pkg/security"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewAdminAuthMiddleware guards the admin surface. The token comes
// from the admin_token cookie set by the link login, or from a Bearer
// header for API clients. When roles are given the claim role must be
// one of them.
func NewAdminAuthMiddleware(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		tokenStr, err := c.Cookie("admin_token")
		if err != nil || tokenStr == "" {
			auth := c.GetHeader("Authorization")
			if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
				tokenStr = after
			}
		}

		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Authentication required",
				"requestID": requestID,
			})
			return
		}

		claims, err := security.ParseAdminToken(config.JWTSecret(), tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Authorization token invalid",
				"requestID": requestID,
			})

			zap.L().Debug("Rejected admin token", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "Insufficient permissions",
				"requestID": requestID,
			})
			return
		}

		c.Set("adminEmail", claims.Email)
		c.Set("adminRole", claims.Role)
		c.Next()
	}
}
