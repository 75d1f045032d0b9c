package admin

import (
	"deogratias/contact-api/internal"
	"deogratias/contact-api/internal/service"
	"deogratias/contact-api/pkg/validators"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const nonMemberDelay = 500 * time.Millisecond

type requestLoginBody struct {
	Email string `json:"email"`
}

// AdminRequestLogin mails a single-use login link. Like the code
// flow, the response never reveals whether the email is allowed.
func AdminRequestLogin(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data requestLoginBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(data.Email))

	if err := validators.EmailValidator(email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   err.Error(),
			"requestID": requestID,
		})
		return
	}

	if _, allowed := d.Allowlist.IsAllowed(email); allowed {
		token, err := d.Tokens.Create(email)
		if err != nil {
			zap.L().Error("Failed to create login token", zap.Error(err), zap.String("requestID", requestID))
		} else {
			loginURL := fmt.Sprintf("%s/admin/verify?token=%s", strings.TrimRight(viper.GetString("host.frontend_url"), "/"), token)
			service.Dispatch(d.Mailer, service.LoginLinkMail(email, loginURL, d.Tokens.TTL), requestID)
		}
	} else {
		// Burn roughly what the member branch costs so response times
		// don't leak allow-list membership
		time.Sleep(nonMemberDelay)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Si cette adresse est autorisée, un lien de connexion a été envoyé.",
	})
}
