package auth

import (
	"deogratias/contact-api/internal"
	"deogratias/contact-api/pkg/util"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthLogout destroys the current session and clears both auth
// cookies. Logging out without a session still succeeds.
func AuthLogout(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	if id := sessionID(c); id != "" {
		if err := d.Sessions.Destroy(id); err != nil {
			zap.L().Error("Failed to destroy session", zap.Error(err), zap.String("requestID", requestID))
		}
	}

	secure := util.SecureCookies()

	c.SetCookie("session_id", "", -1, "/", "", secure, true)
	c.SetCookie("admin_token", "", -1, "/", "", secure, true)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
