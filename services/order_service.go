package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PlaceOrderInput is what a customer submits at checkout
type PlaceOrderInput struct {
	UserID          uint
	DeliveryAddress string
}

// OrderFilter narrows the admin order list
type OrderFilter struct {
	Status   models.OrderStatus
	Page     int
	PageSize int
}

// OrderPage is one page of orders plus the total matching count
type OrderPage struct {
	Orders   []models.Order `json:"orders"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// OrderService runs the order placement and back-office edit workflows
type OrderService struct {
	db            *gorm.DB
	settings      *SettingsService
	carts         *CartService
	notifications *NotificationService
	log           logrus.FieldLogger
}

// NewOrderService wires the order workflows
func NewOrderService(db *gorm.DB, settings *SettingsService, carts *CartService, notifications *NotificationService, log logrus.FieldLogger) *OrderService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OrderService{
		db:            db,
		settings:      settings,
		carts:         carts,
		notifications: notifications,
		log:           log.WithField("component", "orders"),
	}
}

// PlaceOrder converts the user's cart into a pending order. Availability is evaluated
// inside the transaction, and the order, its items, the cart clear and the change event
// commit together or not at all.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*models.Order, error) {
	address := strings.TrimSpace(in.DeliveryAddress)
	if address == "" {
		return nil, &ValidationError{Field: "delivery_address", Message: "delivery address is required"}
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, in.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return persistence("load user", err)
		}
		if !user.HasPhone() {
			return &ValidationError{Field: "phone", Message: "add a phone number to your profile before ordering"}
		}

		settings, err := loadStoreSettings(tx)
		if err != nil {
			return err
		}
		if availability := EvaluateAvailability(s.settings.Now(), settings); !availability.IsOpen {
			return &StoreClosedError{Message: availability.Message}
		}

		cart, err := loadCart(tx, in.UserID)
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return &ValidationError{Field: "cart", Message: "cart is empty"}
		}

		order = models.Order{
			UserID:          in.UserID,
			TotalAmount:     cart.Total(),
			Status:          models.OrderStatusPending,
			DeliveryAddress: address,
			Phone:           strings.TrimSpace(*user.Phone),
		}
		if err := tx.Omit("Items", "User").Create(&order).Error; err != nil {
			return persistence("create order", err)
		}

		order.Items = make([]models.OrderItem, 0, len(cart.Items))
		for _, line := range cart.Items {
			order.Items = append(order.Items, models.OrderItem{
				OrderID:     order.ID,
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Price:       line.Price,
				Quantity:    line.Count,
				Status:      models.OrderItemActive,
			})
		}
		if err := tx.Create(&order.Items).Error; err != nil {
			return persistence("create order items", err)
		}

		if err := clearCart(tx, in.UserID); err != nil {
			return err
		}

		return writeEvent(tx, models.TableOrders, models.EventInsert, order.ID, order.UserID, order)
	})
	if err != nil {
		return nil, err
	}

	s.carts.Invalidate(ctx, in.UserID)

	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"total":    order.TotalAmount.StringFixed(2),
	}).Info("order placed")

	return &order, nil
}

// GetOrder loads an order with its items
func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return findOrder(s.db.WithContext(ctx), id)
}

// ListOrdersForUser returns a user's orders, newest first
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID uint, page, pageSize int) (*OrderPage, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	return paginateOrders(query, page, pageSize)
}

// ListOrders returns all orders for the back office, optionally filtered by status
func (s *OrderService) ListOrders(ctx context.Context, filter OrderFilter) (*OrderPage, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != "" {
		if !filter.Status.IsValid() {
			return nil, &ValidationError{Field: "status", Message: "unknown order status"}
		}
		query = query.Where("status = ?", filter.Status)
	}
	return paginateOrders(query, filter.Page, filter.PageSize)
}

// UpdateStatus moves an order to next when the lifecycle allows it. The write is a
// compare-and-set on the current status so a concurrent edit cannot skip a step.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, next models.OrderStatus) (*models.Order, error) {
	if !next.IsValid() {
		return nil, &ValidationError{Field: "status", Message: "unknown order status"}
	}

	var (
		order        *models.Order
		notification *models.Notification
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !models.IsValidTransition(current.Status, next) {
			return &InvalidTransitionError{From: current.Status, To: next}
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, current.Status).
			Update("status", next)
		if res.Error != nil {
			return persistence("update order status", res.Error)
		}
		if res.RowsAffected == 0 {
			return &InvalidTransitionError{From: current.Status, To: next}
		}

		order, err = findOrder(tx, orderID)
		if err != nil {
			return err
		}

		if nt, ok := models.NotificationTypeForStatus(next); ok {
			notification = NewNotification(order.UserID, &order.ID, nt, models.OrderStatusMessage(order.ID, next))
			if err := insertNotification(tx, notification); err != nil {
				return err
			}
		}

		return writeEvent(tx, models.TableOrders, models.EventUpdate, order.ID, order.UserID, order)
	})
	if err != nil {
		return nil, err
	}

	if notification != nil {
		s.notifications.Deliver(ctx, notification)
	}

	s.log.WithFields(logrus.Fields{"order_id": orderID, "status": next}).Info("order status updated")
	return order, nil
}

// SetItemAvailability marks one line of an order active or out of stock and recomputes
// the adjusted amount. Only accepted orders that are not yet finished can be edited.
func (s *OrderService) SetItemAvailability(ctx context.Context, orderID, itemID uint, status models.OrderItemStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, &ValidationError{Field: "status", Message: "unknown item status"}
	}

	var (
		order        *models.Order
		notification *models.Notification
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = findOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return ErrOrderLocked
		}
		if order.Status == models.OrderStatusPending {
			return ErrOrderNotAccepted
		}

		idx := -1
		for i := range order.Items {
			if order.Items[i].ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrOrderItemNotFound
		}
		item := &order.Items[idx]
		if item.Status == status {
			return nil
		}

		if err := tx.Model(item).Update("status", status).Error; err != nil {
			return persistence("update order item", err)
		}
		item.Status = status

		order.AdjustedAmount = models.AdjustedAmountFor(order.Items)
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("adjusted_amount", order.AdjustedAmount).Error; err != nil {
			return persistence("update adjusted amount", err)
		}

		if status == models.OrderItemOutOfStock {
			message := fmt.Sprintf("%s is out of stock and was removed from your order #%d. New total: %s.",
				item.ProductName, order.ID, order.PayableAmount().StringFixed(2))
			notification = NewNotification(order.UserID, &order.ID, models.NotificationItemOutOfStock, message)
			if err := insertNotification(tx, notification); err != nil {
				return err
			}
		}

		if err := writeEvent(tx, models.TableOrderItems, models.EventUpdate, item.ID, order.UserID, item); err != nil {
			return err
		}
		return writeEvent(tx, models.TableOrders, models.EventUpdate, order.ID, order.UserID, order)
	})
	if err != nil {
		return nil, err
	}

	if notification != nil {
		s.notifications.Deliver(ctx, notification)
	}
	return order, nil
}

func findOrder(db *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, persistence("load order", err)
	}
	return &order, nil
}

func paginateOrders(query *gorm.DB, page, pageSize int) (*OrderPage, error) {
	query = query.Session(&gorm.Session{})
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, persistence("count orders", err)
	}

	orders := []models.Order{}
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, persistence("list orders", err)
	}

	return &OrderPage{Orders: orders, Total: total, Page: page, PageSize: pageSize}, nil
}
