package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/labs/fleamarket/internal/models"
	"github.com/labs/fleamarket/internal/utils"
)

const (
	HeaderUserID  = "X-User-Id"
	HeaderAdminID = "X-Admin-Id"
)

// bearerID reads the caller's opaque id from X-User-Id or an
// "Authorization: Bearer <id>" header.
func bearerID(c *gin.Context, headers ...string) string {
	for _, header := range headers {
		if id := strings.TrimSpace(c.GetHeader(header)); id != "" {
			return id
		}
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// IdentityRequired accepts any well-formed user id. Whether the user exists
// is decided by the service that acts on it.
func IdentityRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerID(c, HeaderUserID)
		if raw == "" {
			utils.UnauthorizedResponse(c, "")
			return
		}
		if _, err := uuid.Parse(raw); err != nil {
			utils.UnauthorizedResponse(c, "Invalid user identifier")
			return
		}

		c.Set("user_id", raw)
		c.Next()
	}
}

// AdminRequired resolves the caller and lets only ADMIN users through.
func AdminRequired(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerID(c, HeaderAdminID, HeaderUserID)
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.UnauthorizedResponse(c, "")
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, "id = ?", id).Error; err != nil || !user.IsAdmin() {
			utils.ForbiddenResponse(c, "")
			return
		}

		c.Set("user_id", raw)
		c.Set("user_role", string(user.Role))
		c.Next()
	}
}
