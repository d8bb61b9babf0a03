package models

import (
	"fmt"
	"time"
)

// NotificationType identifies why a customer was notified
type NotificationType string

const (
	NotificationOrderAccepted       NotificationType = "order_accepted"
	NotificationOrderPacked         NotificationType = "order_packed"
	NotificationOrderOutForDelivery NotificationType = "order_out_for_delivery"
	NotificationOrderDelivered      NotificationType = "order_delivered"
	NotificationOrderCancelled      NotificationType = "order_cancelled"
	NotificationItemOutOfStock      NotificationType = "item_out_of_stock"
)

// NotificationTypeForStatus maps an order status to the notification sent when an order
// enters it. Pending has no notification.
func NotificationTypeForStatus(status OrderStatus) (NotificationType, bool) {
	switch status {
	case OrderStatusAccepted:
		return NotificationOrderAccepted, true
	case OrderStatusPacked:
		return NotificationOrderPacked, true
	case OrderStatusOutForDelivery:
		return NotificationOrderOutForDelivery, true
	case OrderStatusDelivered:
		return NotificationOrderDelivered, true
	case OrderStatusCancelled:
		return NotificationOrderCancelled, true
	default:
		return "", false
	}
}

// Glyph is the display symbol clients show next to a notification of this type
func (t NotificationType) Glyph() string {
	switch t {
	case NotificationOrderAccepted:
		return "✅"
	case NotificationOrderPacked:
		return "📦"
	case NotificationOrderOutForDelivery:
		return "🚚"
	case NotificationOrderDelivered:
		return "🎉"
	case NotificationOrderCancelled:
		return "❌"
	case NotificationItemOutOfStock:
		return "⚠️"
	default:
		return "🔔"
	}
}

// Title is the default headline for a notification of this type
func (t NotificationType) Title() string {
	switch t {
	case NotificationOrderAccepted:
		return "Order accepted"
	case NotificationOrderPacked:
		return "Order packed"
	case NotificationOrderOutForDelivery:
		return "Out for delivery"
	case NotificationOrderDelivered:
		return "Order delivered"
	case NotificationOrderCancelled:
		return "Order cancelled"
	case NotificationItemOutOfStock:
		return "Item unavailable"
	default:
		return "Notification"
	}
}

// Notification is the durable record of something a user was told about
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index:idx_notifications_user_read" json:"user_id"`
	OrderID   *uint            `gorm:"index" json:"order_id"` // nullable, related order
	Type      NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	IsRead    bool             `gorm:"not null;default:false;index:idx_notifications_user_read" json:"is_read"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}

// OrderStatusMessage builds the customer-facing text for an order status change
func OrderStatusMessage(orderID uint, status OrderStatus) string {
	switch status {
	case OrderStatusAccepted:
		return fmt.Sprintf("Your order #%d has been accepted and is being prepared.", orderID)
	case OrderStatusPacked:
		return fmt.Sprintf("Your order #%d is packed.", orderID)
	case OrderStatusOutForDelivery:
		return fmt.Sprintf("Your order #%d is on its way.", orderID)
	case OrderStatusDelivered:
		return fmt.Sprintf("Your order #%d has been delivered. Enjoy!", orderID)
	case OrderStatusCancelled:
		return fmt.Sprintf("Your order #%d has been cancelled.", orderID)
	default:
		return fmt.Sprintf("Your order #%d is now %s.", orderID, status)
	}
}

// PushSubscription is a browser web push endpoint registered by a user
type PushSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Endpoint  string    `gorm:"uniqueIndex;not null" json:"endpoint"`
	P256dh    string    `gorm:"not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the PushSubscription model
func (PushSubscription) TableName() string {
	return "push_subscriptions"
}
