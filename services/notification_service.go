package services

import (
	"context"
	"fmt"

	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NotificationService keeps the durable notification records and fans them out to push.
// The row is the system of record; push delivery never blocks or undoes it.
type NotificationService struct {
	db   *gorm.DB
	push PushSender
	log  logrus.FieldLogger
}

// NewNotificationService creates the service. A nil push sender disables push.
func NewNotificationService(db *gorm.DB, push PushSender, log logrus.FieldLogger) *NotificationService {
	if push == nil {
		push = NoopPushSender{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &NotificationService{db: db, push: push, log: log.WithField("component", "notifications")}
}

// NewNotification builds an unsaved notification row for an order event
func NewNotification(userID uint, orderID *uint, nt models.NotificationType, message string) *models.Notification {
	return &models.Notification{
		UserID:  userID,
		OrderID: orderID,
		Type:    nt,
		Title:   nt.Title(),
		Message: message,
	}
}

// insertNotification writes the row and its change event. db may be an open transaction.
func insertNotification(db *gorm.DB, n *models.Notification) error {
	if err := db.Create(n).Error; err != nil {
		return persistence("create notification", err)
	}
	return writeEvent(db, models.TableNotifications, models.EventInsert, n.ID, n.UserID, n)
}

// Notify persists a notification and then attempts push delivery
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertNotification(tx, n)
	})
	if err != nil {
		return err
	}
	s.Deliver(ctx, n)
	return nil
}

// Deliver pushes an already persisted notification. Failures are logged and swallowed.
func (s *NotificationService) Deliver(ctx context.Context, n *models.Notification) {
	data := map[string]any{
		"notification_id": n.ID,
		"type":            string(n.Type),
		"glyph":           n.Type.Glyph(),
	}
	if n.OrderID != nil {
		data["order_id"] = *n.OrderID
	}

	msg := PushMessage{
		Title: n.Title,
		Body:  n.Message,
		Tag:   fmt.Sprintf("notification-%d", n.ID),
		Data:  data,
	}
	if err := s.push.Send(ctx, n.UserID, msg); err != nil {
		s.log.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"user_id":         n.UserID,
		}).WithError(err).Warn("NotificationDeliveryFailure: push delivery failed")
	}
}

// List returns the user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, persistence("list notifications", err)
	}
	return out, nil
}

// ReadStates loads the id and read flag of every notification of the user
func (s *NotificationService) ReadStates(ctx context.Context, userID uint) ([]models.Notification, error) {
	var out []models.Notification
	err := s.db.WithContext(ctx).
		Select("id", "user_id", "is_read").
		Where("user_id = ?", userID).
		Find(&out).Error
	if err != nil {
		return nil, persistence("load notification read states", err)
	}
	return out, nil
}

// UnreadCount counts the user's rows with is_read = false
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, persistence("count unread notifications", err)
	}
	return count, nil
}

// MarkRead flags one of the user's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) (*models.Notification, error) {
	var n models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", notificationID, userID).First(&n).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotificationNotFound
			}
			return persistence("load notification", err)
		}
		if n.IsRead {
			return nil
		}
		if err := tx.Model(&n).Update("is_read", true).Error; err != nil {
			return persistence("mark notification read", err)
		}
		n.IsRead = true
		return writeEvent(tx, models.TableNotifications, models.EventUpdate, n.ID, n.UserID, n)
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkAllRead flags every unread notification of the user and returns how many changed
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	var changed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unread []models.Notification
		if err := tx.Where("user_id = ? AND is_read = ?", userID, false).Find(&unread).Error; err != nil {
			return persistence("load unread notifications", err)
		}
		if len(unread) == 0 {
			return nil
		}

		ids := make([]uint, len(unread))
		for i := range unread {
			ids[i] = unread[i].ID
		}
		res := tx.Model(&models.Notification{}).Where("id IN ?", ids).Update("is_read", true)
		if res.Error != nil {
			return persistence("mark notifications read", res.Error)
		}
		changed = res.RowsAffected

		for i := range unread {
			unread[i].IsRead = true
			if err := writeEvent(tx, models.TableNotifications, models.EventUpdate, unread[i].ID, userID, unread[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

func writeEvent(db *gorm.DB, table, eventType string, rowID, userID uint, row any) error {
	event, err := models.NewOutboxEvent(table, eventType, rowID, userID, row)
	if err != nil {
		return persistence("encode change event", err)
	}
	if err := db.Create(event).Error; err != nil {
		return persistence("write change event", err)
	}
	return nil
}
