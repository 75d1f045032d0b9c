package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// sessionID pulls the session token from the cookie or, for API
// clients that can't carry cookies, from a Bearer header.
func sessionID(c *gin.Context) string {
	if id, err := c.Cookie("session_id"); err == nil && id != "" {
		return id
	}

	if after, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return after
	}

	return ""
}
