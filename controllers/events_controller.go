package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/alerts"
	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/kendall-kelly/canteen-store-api/realtime"
	"github.com/kendall-kelly/canteen-store-api/services"
	"github.com/sirupsen/logrus"
)

const defaultHeartbeat = 25 * time.Second

// EventsController streams the change feed and the alert effects it produces to a
// connected browser as server-sent events
type EventsController struct {
	hub           *realtime.Hub
	notifications *services.NotificationService
	prefs         *services.PreferenceStore
	live          *alerts.Registry
	log           logrus.FieldLogger
	heartbeat     time.Duration
}

// NewEventsController creates the controller
func NewEventsController(hub *realtime.Hub, notifications *services.NotificationService, prefs *services.PreferenceStore, log logrus.FieldLogger) *EventsController {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &EventsController{
		hub:           hub,
		notifications: notifications,
		prefs:         prefs,
		live:          alerts.NewRegistry(),
		log:           log.WithField("component", "sse"),
		heartbeat:     defaultHeartbeat,
	}
}

type sseMessage struct {
	Event string
	Data  any
}

// sseSink queues dispatcher output for the streaming loop
type sseSink struct {
	out chan<- sseMessage
}

func (s *sseSink) send(ctx context.Context, msg sseMessage) error {
	select {
	case s.out <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *sseSink) Execute(ctx context.Context, effect alerts.Effect) error {
	return s.send(ctx, sseMessage{Event: effect.Kind(), Data: effect})
}

func (s *sseSink) Observe(ctx context.Context, event realtime.Event, state alerts.ObserverState) error {
	return s.send(ctx, sseMessage{Event: "change", Data: gin.H{
		"table":        event.Table,
		"event_type":   event.Type,
		"row_id":       event.RowID,
		"row":          event.Row,
		"unread_count": state.UnreadCount(),
	}})
}

func muteKey(kind alerts.ObserverKind) string {
	if kind == alerts.ObserverAdmin {
		return services.PrefOrderAlertsMuted
	}
	return services.PrefCustomerNotificationsMuted
}

func (ctl *EventsController) observerState(ctx context.Context, user *models.User) (alerts.ObserverState, error) {
	kind := alerts.ObserverCustomer
	if user.IsAdmin() {
		kind = alerts.ObserverAdmin
	}

	persisted, err := ctl.notifications.ReadStates(ctx, user.ID)
	if err != nil {
		return alerts.ObserverState{}, err
	}

	// preferences only shape effects, a cache outage must not block the stream
	muted, err := ctl.prefs.Flag(ctx, user.ID, muteKey(kind))
	if err != nil {
		ctl.log.WithError(err).Warn("could not read mute preference")
	}
	permission, err := ctl.prefs.PermissionGranted(ctx, user.ID)
	if err != nil {
		ctl.log.WithError(err).Warn("could not read notification permission")
	}

	return alerts.NewObserverState(kind, user.ID, muted, permission, persisted), nil
}

// PreferenceChanged applies mute and permission changes to the user's open streams
func (ctl *EventsController) PreferenceChanged(userID uint, key, value string) {
	switch key {
	case services.PrefOrderAlertsMuted, services.PrefCustomerNotificationsMuted:
		muted := services.ParseFlag(value)
		ctl.live.Each(userID, func(d *alerts.Dispatcher) {
			if muteKey(d.State().Kind) == key {
				d.SetMuted(muted)
			}
		})
	case services.PrefNotificationPermission:
		granted := services.PermissionValueGranted(value)
		ctl.live.Each(userID, func(d *alerts.Dispatcher) {
			d.SetPermission(granted)
		})
	}
}

// OpenStreams returns the number of connected event streams
func (ctl *EventsController) OpenStreams() int {
	return ctl.live.Len()
}

func feedFilter(user *models.User) realtime.Filter {
	if !user.IsAdmin() {
		return realtime.ForUser(user.ID)
	}
	own := realtime.ForUser(user.ID)
	return func(e realtime.Event) bool {
		return e.Table == models.TableOrders || e.Table == models.TableOrderItems || own(e)
	}
}

// Stream handles GET /api/v1/events
func (ctl *EventsController) Stream(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// subscribe before reading persisted state so nothing committed in between is missed,
	// replayed inserts are deduplicated by the observer
	sub := ctl.hub.Subscribe("", nil, feedFilter(user))
	state, err := ctl.observerState(ctx, user)
	if err != nil {
		sub.Close()
		respondServiceError(c, err)
		return
	}

	out := make(chan sseMessage, 16)
	dispatcher := alerts.NewDispatcher(state, &sseSink{out: out}, ctl.log)
	remove := ctl.live.Add(dispatcher)
	defer remove()

	// done closes when the subscription ends, including hub shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = dispatcher.Run(ctx, sub)
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("ready", gin.H{
		"observer":           state.Kind,
		"unread_count":       state.UnreadCount(),
		"muted":              state.Muted,
		"permission_granted": state.PermissionGranted,
	})
	c.Writer.Flush()

	heartbeat := time.NewTicker(ctl.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case msg := <-out:
			c.SSEvent(msg.Event, msg.Data)
		case t := <-heartbeat.C:
			c.SSEvent("ping", t.Unix())
		}
		c.Writer.Flush()
	}
}
