package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/services"
)

// NoticeController serves store announcements
type NoticeController struct {
	notices *services.NoticeService
}

// NewNoticeController creates the controller
func NewNoticeController(notices *services.NoticeService) *NoticeController {
	return &NoticeController{notices: notices}
}

// CreateNoticeRequest represents the request body for posting a notice
type CreateNoticeRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

// UpdateNoticeRequest shows or hides a notice
type UpdateNoticeRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ListNotices handles GET /api/v1/notices - active notices the user has not dismissed
func (ctl *NoticeController) ListNotices(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	notices, err := ctl.notices.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Notice bodies are free text, keep them unescaped
	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    notices,
	})
}

// DismissNotice handles POST /api/v1/notices/:id/dismiss
func (ctl *NoticeController) DismissNotice(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := ctl.notices.Dismiss(c.Request.Context(), user.ID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateNotice handles POST /api/v1/admin/notices
func (ctl *NoticeController) CreateNotice(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	notice, err := ctl.notices.Create(c.Request.Context(), user.ID, req.Title, req.Body)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.PureJSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    notice,
	})
}

// UpdateNotice handles PATCH /api/v1/admin/notices/:id
func (ctl *NoticeController) UpdateNotice(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	notice, err := ctl.notices.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    notice,
	})
}
