package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/middleware"
	"github.com/kendall-kelly/canteen-store-api/services"
)

// UserController provisions and edits the signed-in user's profile
type UserController struct {
	users *services.UserService
}

// NewUserController creates the controller
func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	Name  *string `json:"name" binding:"omitempty"`
	Email *string `json:"email" binding:"omitempty,email"`
	Phone *string `json:"phone" binding:"omitempty,max=32"`
}

// CreateUser handles POST /api/v1/users - creates a new user from Auth0 userinfo
// This endpoint requires authentication and fetches user data from Auth0's /userinfo endpoint
func (ctl *UserController) CreateUser(c *gin.Context) {
	// Get the Auth0 user ID from the validated JWT
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	// Get the access token to call Auth0's /userinfo endpoint
	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	user, err := ctl.users.Register(c.Request.Context(), auth0ID, accessToken, middleware.GetRole(c))
	if err != nil {
		if errors.Is(err, services.ErrUserExists) || services.IsValidation(err) || services.IsPersistence(err) {
			respondServiceError(c, err)
			return
		}
		_ = c.Error(err)
		respondError(c, http.StatusBadGateway, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}

	respondSuccess(c, http.StatusCreated, user)
}

// GetMyProfile handles GET /api/v1/users/me - gets current user's profile
func (ctl *UserController) GetMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// UpdateMyProfile handles PATCH /api/v1/users/me - updates current user's profile.
// Sending an empty phone clears it.
func (ctl *UserController) UpdateMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := ctl.users.UpdateProfile(c.Request.Context(), user.ID, services.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, updated)
}
