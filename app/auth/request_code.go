package auth

import (
	"deogratias/contact-api/internal"
	"deogratias/contact-api/internal/service"
	"deogratias/contact-api/pkg/validators"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const nonMemberDelay = 500 * time.Millisecond

type emailBody struct {
	Email string `json:"email"`
}

// AuthRequestCode mails a one-time login code. The response is the
// same whether or not the email is on the allow-list, so the endpoint
// can't be used to probe which addresses are admins.
func AuthRequestCode(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data emailBody
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
		code, err := d.Codes.Issue(email)
		if err != nil {
			zap.L().Error("Failed to issue verification code", zap.Error(err), zap.String("requestID", requestID))
		} else {
			service.Dispatch(d.Mailer, service.VerificationCodeMail(email, code, d.Codes.TTL), requestID)
		}
	} else {
		// Burn roughly what the member branch costs so response times
		// don't leak allow-list membership
		time.Sleep(nonMemberDelay)
	}

	// Identical response in every branch
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Si cette adresse est autorisée, un code de vérification a été envoyé.",
	})
}
