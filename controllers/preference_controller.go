package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/services"
)

// PreferenceListener is told about every stored preference change
type PreferenceListener interface {
	PreferenceChanged(userID uint, key, value string)
}

// PreferenceController reads and writes per-user client preferences
type PreferenceController struct {
	prefs     *services.PreferenceStore
	listeners []PreferenceListener
}

// NewPreferenceController creates the controller. listeners run after each successful write.
func NewPreferenceController(prefs *services.PreferenceStore, listeners ...PreferenceListener) *PreferenceController {
	return &PreferenceController{prefs: prefs, listeners: listeners}
}

// List handles GET /api/v1/preferences
func (ctl *PreferenceController) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	values, err := ctl.prefs.All(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, values)
}

// SetPreferenceRequest carries an opaque string value
type SetPreferenceRequest struct {
	Value *string `json:"value" binding:"required"`
}

// Get handles GET /api/v1/preferences/:key
func (ctl *PreferenceController) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	key := c.Param("key")
	value, found, err := ctl.prefs.Get(c.Request.Context(), user.ID, key)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	var out *string
	if found {
		out = &value
	}
	respondSuccess(c, http.StatusOK, gin.H{"key": key, "value": out})
}

// Put handles PUT /api/v1/preferences/:key
func (ctl *PreferenceController) Put(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req SetPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	key := c.Param("key")
	if err := ctl.prefs.Set(c.Request.Context(), user.ID, key, *req.Value); err != nil {
		respondServiceError(c, err)
		return
	}
	for _, l := range ctl.listeners {
		l.PreferenceChanged(user.ID, key, *req.Value)
	}
	respondSuccess(c, http.StatusOK, gin.H{"key": key, "value": *req.Value})
}
