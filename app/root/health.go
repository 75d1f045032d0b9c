package root

import (
	"deogratias/contact-api/internal"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Health reports whether the service and its database are reachable.
func Health(c *gin.Context, d *internal.Deps) {
	sqlDB, err := d.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}

	if err != nil {
		zap.L().Error("Health check failed", zap.Error(err))

		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unavailable",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"db":        "down",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"db":        "up",
	})
}
