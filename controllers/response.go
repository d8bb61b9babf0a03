package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/middleware"
	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/kendall-kelly/canteen-store-api/services"
)

// retryMessage is shown for every storage failure
const retryMessage = "Something went wrong, please retry."

func respondSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondServiceError maps a service error onto the response envelope
func respondServiceError(c *gin.Context, err error) {
	var (
		closed     *services.StoreClosedError
		validation *services.ValidationError
		transition *services.InvalidTransitionError
	)

	switch {
	case errors.As(err, &closed):
		respondError(c, http.StatusConflict, "STORE_CLOSED", closed.Message)
	case errors.As(err, &validation):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", validation.Error())
	case errors.As(err, &transition):
		respondError(c, http.StatusConflict, "INVALID_TRANSITION", transition.Error())
	case errors.Is(err, services.ErrOrderLocked):
		respondError(c, http.StatusConflict, "ORDER_LOCKED", "Order can no longer be edited")
	case errors.Is(err, services.ErrOrderNotAccepted):
		respondError(c, http.StatusConflict, "ORDER_NOT_ACCEPTED", "Accept the order before changing its items")
	case errors.Is(err, services.ErrOrderNotFound):
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
	case errors.Is(err, services.ErrOrderItemNotFound):
		respondError(c, http.StatusNotFound, "ORDER_ITEM_NOT_FOUND", "Order item not found")
	case errors.Is(err, services.ErrProductNotFound):
		respondError(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
	case errors.Is(err, services.ErrProductUnavailable):
		respondError(c, http.StatusConflict, "PRODUCT_UNAVAILABLE", "Product is not available")
	case errors.Is(err, services.ErrCartItemNotFound):
		respondError(c, http.StatusNotFound, "CART_ITEM_NOT_FOUND", "Product is not in the cart")
	case errors.Is(err, services.ErrNotificationNotFound):
		respondError(c, http.StatusNotFound, "NOTIFICATION_NOT_FOUND", "Notification not found")
	case errors.Is(err, services.ErrNoticeNotFound):
		respondError(c, http.StatusNotFound, "NOTICE_NOT_FOUND", "Notice not found")
	case errors.Is(err, services.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found")
	case errors.Is(err, services.ErrUserExists):
		respondError(c, http.StatusConflict, "USER_EXISTS", "A user with this Auth0 ID or email already exists")
	case errors.Is(err, services.ErrEmailExists):
		respondError(c, http.StatusConflict, "EMAIL_EXISTS", "A user with this email already exists")
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", retryMessage)
	}
}

// currentUser fetches the loaded profile or writes a 401
func currentUser(c *gin.Context) (*models.User, bool) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}
	return user, true
}

// idParam parses a positive numeric path parameter or writes a 400
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
