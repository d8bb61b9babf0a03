package alerts

import (
	"context"
	"fmt"

	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/kendall-kelly/canteen-store-api/realtime"
	"github.com/kendall-kelly/canteen-store-api/services"
	"github.com/sirupsen/logrus"
)

// AdminDirectory lists the users who receive new-order pushes
type AdminDirectory interface {
	AdminIDs(ctx context.Context) ([]uint, error)
}

// PushForwarder sends a web push to every admin when an order is placed, so the back
// office hears about orders even with no tab open.
type PushForwarder struct {
	admins AdminDirectory
	push   services.PushSender
	log    logrus.FieldLogger
}

// NewPushForwarder creates a forwarder
func NewPushForwarder(admins AdminDirectory, push services.PushSender, log logrus.FieldLogger) *PushForwarder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PushForwarder{admins: admins, push: push, log: log.WithField("component", "push_forwarder")}
}

// Subscribe registers the forwarder's interest on hub
func (f *PushForwarder) Subscribe(hub *realtime.Hub) *realtime.Subscription {
	return hub.Subscribe(models.TableOrders, []string{models.EventInsert}, nil)
}

// Run forwards events from sub until ctx is done or sub is closed
func (f *PushForwarder) Run(ctx context.Context, sub *realtime.Subscription) error {
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			f.Forward(ctx, event)
		}
	}
}

// Forward pushes one new-order event to all admins. Failures are logged and swallowed.
func (f *PushForwarder) Forward(ctx context.Context, event realtime.Event) {
	if event.Table != models.TableOrders || event.Type != models.EventInsert {
		return
	}

	var order models.Order
	if err := event.Decode(&order); err != nil {
		f.log.WithError(err).WithField("event_id", event.ID).Warn("skipping malformed order event")
		return
	}

	admins, err := f.admins.AdminIDs(ctx)
	if err != nil {
		f.log.WithError(err).Warn("NotificationDeliveryFailure: could not load admins")
		return
	}

	priority := Classify(order.TotalAmount)
	msg := services.PushMessage{
		Title: fmt.Sprintf("New order #%d", order.ID),
		Body:  fmt.Sprintf("%d item(s), total %s", len(order.Items), order.TotalAmount.StringFixed(2)),
		Tag:   fmt.Sprintf("order-%d", order.ID),
		Data: map[string]any{
			"order_id": order.ID,
			"priority": string(priority),
			"tones":    priority.Tones(),
		},
		Urgent: priority == PriorityUrgent,
	}

	for _, adminID := range admins {
		if err := f.push.Send(ctx, adminID, msg); err != nil {
			f.log.WithFields(logrus.Fields{
				"order_id": order.ID,
				"admin_id": adminID,
			}).WithError(err).Warn("NotificationDeliveryFailure: admin push failed")
		}
	}
}
