package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bookhaven/bookstore/pkg/models"
)

const userKey = "web.user"

// Identity resolves the caller from the X-User-Name and X-User-Role
// headers. Authentication happens upstream; unknown usernames get a row
// created on first sight so foreign keys always resolve.
func Identity(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetHeader("X-User-Name")
		if username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "X-User-Name header is required"})
			return
		}
		role := c.GetHeader("X-User-Role")
		if role == "" {
			role = models.RoleCustomer
		}

		var user models.User
		err := db.Where("username = ?", username).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{Username: username, Role: role}
			if err := db.Create(&user).Error; err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not resolve user"})
				return
			}
		} else if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not resolve user"})
			return
		}
		if role != user.Role {
			user.Role = role
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the identity resolved by the middleware.
func CurrentUser(c *gin.Context) models.User {
	user, _ := c.Get(userKey)
	u, _ := user.(models.User)
	return u
}

// RequireRole gates a route group. Admin passes every gate.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user.Role == models.RoleAdmin {
			c.Next()
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
	}
}
