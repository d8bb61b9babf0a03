package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/alerts"
	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/kendall-kelly/canteen-store-api/services"
)

// OrderController serves checkout, order history and the back-office order edits
type OrderController struct {
	orders *services.OrderService
}

// NewOrderController creates the controller
func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// PlaceOrderRequest represents the request body for checking out the cart
type PlaceOrderRequest struct {
	DeliveryAddress string `json:"delivery_address" binding:"required"`
}

// UpdateOrderStatusRequest moves an order along its lifecycle
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderItemRequest marks an order line active or out of stock
type UpdateOrderItemRequest struct {
	Status string `json:"status" binding:"required,oneof=active out_of_stock"`
}

// adminOrder adds the edits the back office may offer for an order
type adminOrder struct {
	models.Order
	AllowedTransitions []models.OrderStatus `json:"allowed_transitions"`
	PayableAmount      string               `json:"payable_amount"`
	Priority           alerts.Priority      `json:"priority"`
}

func toAdminOrder(o models.Order) adminOrder {
	return adminOrder{
		Order:              o,
		AllowedTransitions: o.Status.AllowedTransitions(),
		PayableAmount:      o.PayableAmount().StringFixed(2),
		Priority:           alerts.Classify(o.TotalAmount),
	}
}

// PlaceOrder handles POST /api/v1/orders - converts the cart into an order
func (ctl *OrderController) PlaceOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctl.orders.PlaceOrder(c.Request.Context(), services.PlaceOrderInput{
		UserID:          user.ID,
		DeliveryAddress: req.DeliveryAddress,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, order)
}

// ListMyOrders handles GET /api/v1/orders - the signed-in user's orders, newest first
func (ctl *OrderController) ListMyOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, err := ctl.orders.ListOrdersForUser(c.Request.Context(), user.ID, queryInt(c, "page", 1), queryInt(c, "page_size", 0))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, page)
}

// GetMyOrder handles GET /api/v1/orders/:id - customers only see their own orders
func (ctl *OrderController) GetMyOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := ctl.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		// same response as a missing order so ids cannot be guessed
		respondServiceError(c, services.ErrOrderNotFound)
		return
	}
	respondSuccess(c, http.StatusOK, order)
}

// ListOrders handles GET /api/v1/admin/orders?status=&page=&page_size=
func (ctl *OrderController) ListOrders(c *gin.Context) {
	page, err := ctl.orders.ListOrders(c.Request.Context(), services.OrderFilter{
		Status:   models.OrderStatus(c.Query("status")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 0),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	orders := make([]adminOrder, 0, len(page.Orders))
	for _, o := range page.Orders {
		orders = append(orders, toAdminOrder(o))
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"orders":    orders,
		"total":     page.Total,
		"page":      page.Page,
		"page_size": page.PageSize,
	})
}

// UpdateStatus handles PATCH /api/v1/admin/orders/:id/status
func (ctl *OrderController) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	next, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	order, err := ctl.orders.UpdateStatus(c.Request.Context(), id, next)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, toAdminOrder(*order))
}

// UpdateItem handles PATCH /api/v1/admin/orders/:id/items/:itemId
func (ctl *OrderController) UpdateItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := idParam(c, "itemId")
	if !ok {
		return
	}

	var req UpdateOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := ctl.orders.SetItemAvailability(c.Request.Context(), id, itemID, models.OrderItemStatus(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, toAdminOrder(*order))
}
