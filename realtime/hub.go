package realtime

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

const defaultSubscriptionBuffer = 64

// Filter narrows a subscription beyond table and event type. A nil filter accepts all.
type Filter func(Event) bool

// ForUser accepts events that belong to the given user
func ForUser(userID uint) Filter {
	return func(e Event) bool { return e.UserID == userID }
}

// Hub fans events out to in-process subscribers
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
	log    logrus.FieldLogger
}

// NewHub creates an empty hub
func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		subs:   make(map[uint64]*Subscription),
		buffer: defaultSubscriptionBuffer,
		log:    log.WithField("component", "realtime-hub"),
	}
}

// Subscription is a live stream of matching events. Close must be called when the
// consumer goes away.
type Subscription struct {
	id         uint64
	table      string
	eventTypes map[string]struct{}
	filter     Filter
	events     chan Event
	hub        *Hub
	once       sync.Once
}

// Events is closed once the subscription is torn down
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close removes the subscription from the hub. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
		close(s.events)
	})
}

func (s *Subscription) matches(e Event) bool {
	if s.table != "" && s.table != e.Table {
		return false
	}
	if len(s.eventTypes) > 0 {
		if _, ok := s.eventTypes[e.Type]; !ok {
			return false
		}
	}
	return s.filter == nil || s.filter(e)
}

// Subscribe registers interest in events of table (empty for every table) whose type is
// one of eventTypes (empty for every type) and that pass filter.
func (h *Hub) Subscribe(table string, eventTypes []string, filter Filter) *Subscription {
	types := make(map[string]struct{}, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:         h.nextID,
		table:      table,
		eventTypes: types,
		filter:     filter,
		events:     make(chan Event, h.buffer),
		hub:        h,
	}
	h.subs[sub.id] = sub
	return sub
}

// Publish hands the event to every matching subscriber without blocking. A subscriber
// whose buffer is full misses the event.
func (h *Hub) Publish(_ context.Context, event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if !sub.matches(event) {
			continue
		}
		select {
		case sub.events <- event:
		default:
			h.log.WithFields(logrus.Fields{
				"subscription": sub.id,
				"table":        event.Table,
				"row_id":       event.RowID,
			}).Warn("subscriber buffer full, dropping event")
		}
	}
	return nil
}

// SubscriberCount returns the number of live subscriptions
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close tears down every subscription
func (h *Hub) Close() {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		sub.Close()
	}
}
