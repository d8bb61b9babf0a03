package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/services"
)

// StoreController serves store hours and the back-office settings
type StoreController struct {
	settings *services.SettingsService
}

// NewStoreController creates the controller
func NewStoreController(settings *services.SettingsService) *StoreController {
	return &StoreController{settings: settings}
}

// UpdateSettingsRequest carries the settings to change. Omitted fields keep their value.
type UpdateSettingsRequest struct {
	OpenTime      *string `json:"open_time"`
	CloseTime     *string `json:"close_time"`
	ForceStatus   *string `json:"force_status"`
	ClosedMessage *string `json:"closed_message"`
}

func (r UpdateSettingsRequest) changes() map[string]string {
	out := map[string]string{}
	if r.OpenTime != nil {
		out["open_time"] = *r.OpenTime
	}
	if r.CloseTime != nil {
		out["close_time"] = *r.CloseTime
	}
	if r.ForceStatus != nil {
		out["force_status"] = *r.ForceStatus
	}
	if r.ClosedMessage != nil {
		out["closed_message"] = *r.ClosedMessage
	}
	return out
}

// GetStatus handles GET /api/v1/store/status - whether orders are accepted right now
func (ctl *StoreController) GetStatus(c *gin.Context) {
	availability, err := ctl.settings.Availability(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, availability)
}

// GetSettings handles GET /api/v1/admin/settings
func (ctl *StoreController) GetSettings(c *gin.Context) {
	settings, err := ctl.settings.Get(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, settings.AsMap())
}

// UpdateSettings handles PUT /api/v1/admin/settings
func (ctl *StoreController) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	settings, err := ctl.settings.Update(c.Request.Context(), req.changes())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	availability := services.EvaluateAvailability(ctl.settings.Now(), settings)
	respondSuccess(c, http.StatusOK, gin.H{
		"settings":     settings.AsMap(),
		"availability": availability,
	})
}
