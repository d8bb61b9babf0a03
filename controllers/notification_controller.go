package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/services"
)

// NotificationController serves the signed-in user's notification history
type NotificationController struct {
	notifications *services.NotificationService
}

// NewNotificationController creates the controller
func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

// List handles GET /api/v1/notifications?limit=
func (ctl *NotificationController) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := ctl.notifications.List(c.Request.Context(), user.ID, queryInt(c, "limit", 0))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, list)
}

// UnreadCount handles GET /api/v1/notifications/unread-count
func (ctl *NotificationController) UnreadCount(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	count, err := ctl.notifications.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"unread": count})
}

// MarkRead handles POST /api/v1/notifications/:id/read
func (ctl *NotificationController) MarkRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	n, err := ctl.notifications.MarkRead(c.Request.Context(), user.ID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, n)
}

// MarkAllRead handles POST /api/v1/notifications/read-all
func (ctl *NotificationController) MarkAllRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	changed, err := ctl.notifications.MarkAllRead(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"updated": changed})
}
