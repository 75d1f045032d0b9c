package contact

import (
	"deogratias/contact-api/config"
	"deogratias/contact-api/internal"
	"deogratias/contact-api/internal/model"
	"deogratias/contact-api/internal/service"
	"deogratias/contact-api/pkg/validators"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type submitBody struct {
	Prenom    string `json:"prenom"`
	Nom       string `json:"nom"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
	Projet    string `json:"projet"`
	Whatsapp  bool   `json:"whatsapp"`
}

// ContactSubmit stores a contact form submission and mails a
// confirmation to the visitor plus a notification to the admins. One
// submission per email address: a repeat gets told when the first one
// arrived.
func ContactSubmit(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data submitBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	data.Email = strings.ToLower(strings.TrimSpace(data.Email))

	err := validators.ContactValidator(&validators.ContactInput{
		Prenom:    data.Prenom,
		Nom:       data.Nom,
		Email:     data.Email,
		Telephone: data.Telephone,
		Projet:    data.Projet,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   err.Error(),
			"requestID": requestID,
		})
		return
	}

	var existing model.Contact

	err = d.DB.Where("email = ?", data.Email).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   fmt.Sprintf("Vous nous avez déjà contactés le %s. Nous vous répondrons très bientôt.", existing.CreatedAt.Format("02/01/2006")),
			"requestID": requestID,
		})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check for existing contact", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	entry := &model.Contact{
		ID:        uuid.NewString(),
		Prenom:    data.Prenom,
		Nom:       data.Nom,
		Email:     data.Email,
		Telephone: data.Telephone,
		Projet:    data.Projet,
		Whatsapp:  data.Whatsapp,
	}

	if err := d.DB.Create(entry).Error; err != nil {
		// The unique index can still fire when two submissions race
		// past the lookup above.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success":   false,
				"message":   "Vous nous avez déjà contactés. Nous vous répondrons très bientôt.",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to store contact", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	// Mail delivery never blocks or fails the submission
	service.Dispatch(d.Mailer, service.ConfirmationMail(entry), requestID)

	for _, admin := range config.AdminEmails() {
		service.Dispatch(d.Mailer, service.AdminNotificationMail(admin, entry), requestID)
	}

	resp := gin.H{
		"success":   true,
		"message":   "Votre message a été envoyé avec succès. Je vous recontacterai bientôt !",
		"requestID": requestID,
	}

	if data.Whatsapp && data.Telephone != "" {
		resp["whatsappUrl"] = fmt.Sprintf("https://wa.me/%s?text=%s",
			phoneDigitsRe.ReplaceAllString(data.Telephone, ""),
			url.QueryEscape("Bonjour, je vous contacte suite à votre message sur mon portfolio."))
	}

	c.JSON(http.StatusOK, resp)
}

// Strips phone formatting down to what wa.me accepts
var phoneDigitsRe = regexp.MustCompile(`[^0-9+]`)
