package auth

import (
	"deogratias/contact-api/internal"
	"deogratias/contact-api/internal/service"
	"deogratias/contact-api/pkg/util"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type verifyCodeBody struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// AuthVerifyCode exchanges a one-time code for a session. The session
// id lands in an HttpOnly cookie, the user info in the body.
func AuthVerifyCode(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data verifyCodeBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(data.Email))

	role, allowed := d.Allowlist.IsAllowed(email)
	if !allowed {
		// Same response as a wrong code so membership stays hidden
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   "Code invalide ou expiré",
			"requestID": requestID,
		})
		return
	}

	if err := d.Codes.Verify(email, data.Code); err != nil {
		if errors.Is(err, service.ErrTooManyAttempts) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success":   false,
				"message":   "Trop de tentatives. Veuillez demander un nouveau code.",
				"requestID": requestID,
			})
			return
		}

		if !errors.Is(err, service.ErrInvalidCode) {
			zap.L().Error("Failed to verify code", zap.Error(err), zap.String("requestID", requestID))
		}

		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   "Code invalide ou expiré",
			"requestID": requestID,
		})
		return
	}

	user, err := service.GetOrCreateUser(d.DB, email, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to resolve user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	sessionID, err := d.Sessions.Create(user, c.Request.UserAgent())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create session", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	// Reclaim dead session rows while we're here
	go d.Sessions.CleanExpired()

	c.SetCookie("session_id", sessionID, int(d.Sessions.TTL.Seconds()), "/", "", util.SecureCookies(), true)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"authToken": sessionID,
		"user": service.SessionUser{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Role:  user.Role,
		},
	})
}
