package contact

import (
	"deogratias/contact-api/internal"
	"deogratias/contact-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContactDelete removes a submission by id.
func ContactDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   "No contact id provided",
			"requestID": requestID,
		})
		return
	}

	res := d.DB.Where("id = ?", id).Delete(&model.Contact{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete contact", zap.Error(res.Error), zap.String("requestID", requestID))
		return
	}

	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"success":   false,
			"message":   "Contact not found",
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
