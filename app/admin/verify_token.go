package admin

import (
	"deogratias/contact-api/config"
	"deogratias/contact-api/internal"
	"deogratias/contact-api/internal/service"
	"deogratias/contact-api/pkg/security"
	"deogratias/contact-api/pkg/util"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AdminVerifyToken redeems a login-link token for an admin JWT. The
// token burns on first use, a replay gets a 401.
func AdminVerifyToken(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   "No token provided",
			"requestID": requestID,
		})
		return
	}

	email, err := d.Tokens.Consume(token)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidToken) {
			zap.L().Error("Failed to consume login token", zap.Error(err), zap.String("requestID", requestID))
		}

		c.JSON(http.StatusUnauthorized, gin.H{
			"success":   false,
			"message":   "Lien invalide ou expiré",
			"requestID": requestID,
		})
		return
	}

	// The allow-list may have changed since the link was sent
	role, allowed := d.Allowlist.IsAllowed(email)
	if !allowed {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success":   false,
			"message":   "Lien invalide ou expiré",
			"requestID": requestID,
		})
		return
	}

	ttl := time.Duration(viper.GetInt("auth.jwt_ttl_hours")) * time.Hour

	jwt, err := security.SignAdminToken(config.JWTSecret(), email, role, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to sign admin token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.SetCookie("admin_token", jwt, int(ttl.Seconds()), "/", "", util.SecureCookies(), true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"email":   email,
		"role":    role,
	})
}
