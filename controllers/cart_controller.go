package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/kendall-kelly/canteen-store-api/services"
)

// CartController serves the signed-in user's cart
type CartController struct {
	carts *services.CartService
}

// NewCartController creates the controller
func NewCartController(carts *services.CartService) *CartController {
	return &CartController{carts: carts}
}

// AddCartItemRequest represents the request body for adding to the cart
type AddCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Count     int  `json:"count" binding:"required,gt=0"`
}

// UpdateCartItemRequest sets a line's count; zero removes it
type UpdateCartItemRequest struct {
	Count *int `json:"count" binding:"required,gte=0"`
}

func cartResponse(cart *models.Cart) gin.H {
	return gin.H{
		"items": cart.Items,
		"total": cart.Total(),
	}
}

// GetCart handles GET /api/v1/cart
func (ctl *CartController) GetCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	cart, err := ctl.carts.GetCart(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, cartResponse(cart))
}

// AddItem handles POST /api/v1/cart/items
func (ctl *CartController) AddItem(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	cart, err := ctl.carts.AddItem(c.Request.Context(), user.ID, req.ProductID, req.Count)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, cartResponse(cart))
}

// UpdateItem handles PATCH /api/v1/cart/items/:productId
func (ctl *CartController) UpdateItem(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	cart, err := ctl.carts.UpdateCount(c.Request.Context(), user.ID, productID, *req.Count)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, cartResponse(cart))
}

// RemoveItem handles DELETE /api/v1/cart/items/:productId
func (ctl *CartController) RemoveItem(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := idParam(c, "productId")
	if !ok {
		return
	}

	cart, err := ctl.carts.RemoveItem(c.Request.Context(), user.ID, productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, cartResponse(cart))
}

// ClearCart handles DELETE /api/v1/cart
func (ctl *CartController) ClearCart(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := ctl.carts.Clear(c.Request.Context(), user.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
