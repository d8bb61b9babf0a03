package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PushMessage is the payload delivered to a user's devices
type PushMessage struct {
	Title  string         `json:"title"`
	Body   string         `json:"body"`
	Tag    string         `json:"tag,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
	Urgent bool           `json:"urgent,omitempty"`
}

// PushSender delivers a message to every device of a user. Delivery is best-effort;
// callers log failures and carry on.
type PushSender interface {
	Send(ctx context.Context, userID uint, msg PushMessage) error
}

// NoopPushSender drops every message. Used when VAPID keys are not configured.
type NoopPushSender struct{}

func (NoopPushSender) Send(context.Context, uint, PushMessage) error { return nil }

// PushSubscriptionService registers browser push endpoints
type PushSubscriptionService struct {
	db *gorm.DB
}

// NewPushSubscriptionService creates the registry
func NewPushSubscriptionService(db *gorm.DB) *PushSubscriptionService {
	return &PushSubscriptionService{db: db}
}

// Register stores or re-assigns an endpoint to the user
func (s *PushSubscriptionService) Register(ctx context.Context, userID uint, endpoint, p256dh, auth string) (*models.PushSubscription, error) {
	if strings.TrimSpace(endpoint) == "" || p256dh == "" || auth == "" {
		return nil, &ValidationError{Field: "subscription", Message: "endpoint and keys are required"}
	}

	sub := models.PushSubscription{UserID: userID, Endpoint: endpoint, P256dh: p256dh, Auth: auth}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth", "updated_at"}),
	}).Create(&sub).Error
	if err != nil {
		return nil, persistence("save push subscription", err)
	}
	return &sub, nil
}

// Unregister removes an endpoint owned by the user
func (s *PushSubscriptionService) Unregister(ctx context.Context, userID uint, endpoint string) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&models.PushSubscription{}).Error
	if err != nil {
		return persistence("delete push subscription", err)
	}
	return nil
}

// ForUser lists the endpoints of a user
func (s *PushSubscriptionService) ForUser(ctx context.Context, userID uint) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&subs).Error; err != nil {
		return nil, persistence("load push subscriptions", err)
	}
	return subs, nil
}

// WebPushSender sends VAPID-signed web push messages
type WebPushSender struct {
	subs       *PushSubscriptionService
	publicKey  string
	privateKey string
	subject    string
	client     webpush.HTTPClient
	log        logrus.FieldLogger
}

// NewWebPushSender creates a sender using the VAPID key pair
func NewWebPushSender(subs *PushSubscriptionService, publicKey, privateKey, subject string, log logrus.FieldLogger) *WebPushSender {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WebPushSender{
		subs:       subs,
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    subject,
		client:     http.DefaultClient,
		log:        log.WithField("component", "webpush"),
	}
}

// Send pushes msg to every endpoint of the user. Endpoints the push service reports as
// gone are removed. The first delivery error is returned after all endpoints are tried.
func (s *WebPushSender) Send(ctx context.Context, userID uint, msg PushMessage) error {
	subs, err := s.subs.ForUser(ctx, userID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal push payload")
	}

	urgency := webpush.UrgencyNormal
	if msg.Urgent {
		urgency = webpush.UrgencyHigh
	}

	var firstErr error
	for _, sub := range subs {
		resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
		}, &webpush.Options{
			HTTPClient:      s.client,
			Subscriber:      s.subject,
			VAPIDPublicKey:  s.publicKey,
			VAPIDPrivateKey: s.privateKey,
			TTL:             3600,
			Urgency:         urgency,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = errors.Wrap(err, "send web push")
			}
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
			if err := s.subs.Unregister(ctx, userID, sub.Endpoint); err != nil {
				s.log.WithError(err).Warn("failed to remove expired push subscription")
			}
		case resp.StatusCode >= 400:
			if firstErr == nil {
				firstErr = fmt.Errorf("push service returned status %d", resp.StatusCode)
			}
		}
	}

	return firstErr
}
