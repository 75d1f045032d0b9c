package admin

import (
	"deogratias/contact-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminReportTrigger sends the weekly contact report immediately
// instead of waiting for the schedule.
func AdminReportTrigger(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	if err := d.Report.Run(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to send report", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Rapport envoyé",
	})
}
