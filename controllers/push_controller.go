package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/services"
)

// PushController registers browser push endpoints
type PushController struct {
	subs      *services.PushSubscriptionService
	publicKey string
}

// NewPushController creates the controller. publicKey is the VAPID key browsers
// subscribe with; empty when push is disabled.
func NewPushController(subs *services.PushSubscriptionService, publicKey string) *PushController {
	return &PushController{subs: subs, publicKey: publicKey}
}

// PushSubscriptionRequest mirrors the browser's PushSubscription.toJSON()
type PushSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

// UnsubscribeRequest names the endpoint to drop
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// PublicKey handles GET /api/v1/push/public-key
func (ctl *PushController) PublicKey(c *gin.Context) {
	if ctl.publicKey == "" {
		respondError(c, http.StatusNotFound, "PUSH_DISABLED", "Push notifications are not configured")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"public_key": ctl.publicKey})
}

// Subscribe handles POST /api/v1/push/subscriptions
func (ctl *PushController) Subscribe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req PushSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	sub, err := ctl.subs.Register(c.Request.Context(), user.ID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"id": sub.ID, "endpoint": sub.Endpoint})
}

// Unsubscribe handles DELETE /api/v1/push/subscriptions
func (ctl *PushController) Unsubscribe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req UnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := ctl.subs.Unregister(c.Request.Context(), user.ID, req.Endpoint); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
