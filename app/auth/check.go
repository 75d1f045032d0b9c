package auth

import (
	"deogratias/contact-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthCheck reports whether the session cookie still belongs to a
// live session.
func AuthCheck(c *gin.Context, d *internal.Deps) {
	id := sessionID(c)
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"authenticated": false,
		})
		return
	}

	user, ok := d.Sessions.Verify(id)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"authenticated": false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user":          user,
	})
}
