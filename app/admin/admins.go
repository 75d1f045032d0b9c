package admin

import (
	"deogratias/contact-api/internal"
	"deogratias/contact-api/internal/model"
	"deogratias/contact-api/internal/service"
	"deogratias/contact-api/pkg/validators"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminList returns the active allow-list entries, decrypted.
func AdminList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	admins, err := d.Allowlist.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list admins", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"admins":  admins,
	})
}

type adminBody struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AdminAdd puts a new email on the allow-list. Only reachable with
// the super_admin role.
func AdminAdd(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data adminBody
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

	if data.Role != "" && !slices.Contains([]string{model.RoleAdmin, model.RoleSuperAdmin}, data.Role) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   "Invalid role provided",
			"requestID": requestID,
		})
		return
	}

	if err := d.Allowlist.Add(email, data.Role); err != nil {
		if errors.Is(err, service.ErrAlreadyAdmin) {
			c.JSON(http.StatusConflict, gin.H{
				"success":   false,
				"message":   "Cette adresse est déjà administrateur",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to add admin", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
	})
}

// AdminRemove deactivates an allow-list entry. Admins can't remove
// themselves, that would lock the last key in the safe.
func AdminRemove(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data adminBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	email := strings.ToLower(strings.TrimSpace(data.Email))

	if email == c.GetString("adminEmail") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"message":   "Vous ne pouvez pas vous retirer vous-même",
			"requestID": requestID,
		})
		return
	}

	if err := d.Allowlist.Remove(email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success":   false,
				"message":   "Administrateur introuvable",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to remove admin", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
