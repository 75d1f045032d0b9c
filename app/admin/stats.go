package admin

import (
	"deogratias/contact-api/internal"
	"deogratias/contact-api/internal/model"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminStats returns dashboard counters. The route sits behind a
// short response cache so a busy dashboard doesn't hammer the
// database.
func AdminStats(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	now := time.Now()

	var (
		totalContacts int64
		weekContacts  int64
		activeAdmins  int64
		liveSessions  int64
	)

	err := d.DB.Model(&model.Contact{}).Count(&totalContacts).Error
	if err == nil {
		err = d.DB.Model(&model.Contact{}).Where("created_at >= ?", now.AddDate(0, 0, -7)).Count(&weekContacts).Error
	}
	if err == nil {
		err = d.DB.Model(&model.Admin{}).Where("is_active = ?", true).Count(&activeAdmins).Error
	}
	if err == nil {
		err = d.DB.Model(&model.Session{}).Where("expires_at > ?", now).Count(&liveSessions).Error
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to compute stats", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"totalContacts": totalContacts,
			"weekContacts":  weekContacts,
			"activeAdmins":  activeAdmins,
			"liveSessions":  liveSessions,
		},
	})
}
