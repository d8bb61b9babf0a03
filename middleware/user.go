package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/kendall-kelly/canteen-store-api/services"
)

// ContextUser holds the *models.User loaded by LoadCurrentUser
const ContextUser = "current_user"

// UserLookup resolves a token subject to a local profile
type UserLookup interface {
	GetByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error)
}

// LoadCurrentUser loads the profile of the authenticated subject. Requests from subjects
// without a profile are rejected.
func LoadCurrentUser(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth0ID, err := GetUserID(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Could not extract user information",
				},
			})
			return
		}

		user, err := users.GetByAuth0ID(c.Request.Context(), auth0ID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "USER_NOT_FOUND",
						"message": "User profile not found. Please create a profile first.",
					},
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to load user profile",
				},
			})
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}

// CurrentUser returns the profile stored by LoadCurrentUser
func CurrentUser(c *gin.Context) (*models.User, error) {
	value, exists := c.Get(ContextUser)
	if !exists {
		return nil, &AuthError{Code: "MISSING_USER", Message: "User not loaded"}
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil, &AuthError{Code: "INVALID_USER", Message: "User is not in the expected format"}
	}
	return user, nil
}

// RequireAdmin rejects users whose profile role is not admin
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := CurrentUser(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Could not extract user information",
				},
			})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Only admins can access this resource",
				},
			})
			return
		}
		c.Next()
	}
}
