package alerts

import (
	"fmt"

	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/kendall-kelly/canteen-store-api/realtime"
)

// ObserverKind separates the back office from shoppers
type ObserverKind string

const (
	ObserverAdmin    ObserverKind = "admin"
	ObserverCustomer ObserverKind = "customer"
)

// ObserverState is everything one connected observer knows. It only changes through Apply.
type ObserverState struct {
	Kind              ObserverKind
	UserID            uint
	Muted             bool
	PermissionGranted bool

	read       map[uint]bool
	seenOrders map[uint]bool
}

// NewObserverState starts an observer with the persisted notifications of its user so the
// unread count matches storage from the first event.
func NewObserverState(kind ObserverKind, userID uint, muted, permission bool, persisted []models.Notification) ObserverState {
	s := ObserverState{
		Kind:              kind,
		UserID:            userID,
		Muted:             muted,
		PermissionGranted: permission,
		read:              make(map[uint]bool, len(persisted)),
		seenOrders:        map[uint]bool{},
	}
	for _, n := range persisted {
		s.read[n.ID] = n.IsRead
	}
	return s
}

// UnreadCount is derived from the read flags alone
func (s ObserverState) UnreadCount() int {
	count := 0
	for _, isRead := range s.read {
		if !isRead {
			count++
		}
	}
	return count
}

// Seen reports whether the observer already alerted on the order
func (s ObserverState) Seen(orderID uint) bool {
	return s.seenOrders[orderID]
}

func (s ObserverState) clone() ObserverState {
	out := s
	out.read = make(map[uint]bool, len(s.read))
	for id, isRead := range s.read {
		out.read[id] = isRead
	}
	out.seenOrders = make(map[uint]bool, len(s.seenOrders))
	for id := range s.seenOrders {
		out.seenOrders[id] = true
	}
	return out
}

// Apply folds an event into the state and returns the effects to perform. It does not
// modify s. Replaying an event yields the same state and no further effects.
func Apply(s ObserverState, event realtime.Event) (ObserverState, []Effect, error) {
	switch {
	case s.Kind == ObserverAdmin && event.Table == models.TableOrders && event.Type == models.EventInsert:
		return applyNewOrder(s, event)
	case event.Table == models.TableNotifications && event.UserID == s.UserID:
		return applyNotification(s, event)
	default:
		return s, nil, nil
	}
}

func applyNewOrder(s ObserverState, event realtime.Event) (ObserverState, []Effect, error) {
	var order models.Order
	if err := event.Decode(&order); err != nil {
		return s, nil, fmt.Errorf("decode order event: %w", err)
	}
	if order.ID == 0 {
		order.ID = event.RowID
	}
	if s.Seen(order.ID) {
		return s, nil, nil
	}

	next := s.clone()
	next.seenOrders[order.ID] = true

	priority := Classify(order.TotalAmount)
	title := fmt.Sprintf("New order #%d", order.ID)
	message := fmt.Sprintf("%d item(s), total %s", len(order.Items), order.TotalAmount.StringFixed(2))
	if priority != PriorityStandard {
		title = fmt.Sprintf("New %s order #%d", priority, order.ID)
	}

	var effects []Effect
	if !s.Muted {
		effects = append(effects, AudioCue{Tones: priority.Tones()})
	}
	if s.PermissionGranted {
		effects = append(effects, NativeNotification{
			Title:              title,
			Body:               message,
			Tag:                fmt.Sprintf("order-%d", order.ID),
			RequireInteraction: priority == PriorityUrgent,
		})
	}
	effects = append(effects, Banner{
		Title:    title,
		Message:  message,
		Priority: priority,
		OrderID:  order.ID,
	})
	return next, effects, nil
}

func applyNotification(s ObserverState, event realtime.Event) (ObserverState, []Effect, error) {
	var n models.Notification
	if err := event.Decode(&n); err != nil {
		return s, nil, fmt.Errorf("decode notification event: %w", err)
	}
	if n.ID == 0 {
		n.ID = event.RowID
	}

	switch event.Type {
	case models.EventInsert:
		if _, known := s.read[n.ID]; known {
			return s, nil, nil
		}
		next := s.clone()
		next.read[n.ID] = n.IsRead

		var effects []Effect
		if !s.Muted {
			effects = append(effects, AudioCue{Tones: PriorityStandard.Tones()})
		}
		if s.PermissionGranted {
			effects = append(effects, NativeNotification{
				Title: n.Title,
				Body:  n.Message,
				Tag:   fmt.Sprintf("notification-%d", n.ID),
			})
		}
		banner := Banner{
			Title:          n.Title,
			Message:        n.Message,
			Glyph:          n.Type.Glyph(),
			NotificationID: n.ID,
		}
		if n.OrderID != nil {
			banner.OrderID = *n.OrderID
		}
		effects = append(effects, banner)
		return next, effects, nil

	case models.EventUpdate:
		if isRead, known := s.read[n.ID]; known && isRead == n.IsRead {
			return s, nil, nil
		}
		next := s.clone()
		next.read[n.ID] = n.IsRead
		return next, nil, nil

	case models.EventDelete:
		if _, known := s.read[n.ID]; !known {
			return s, nil, nil
		}
		next := s.clone()
		delete(next.read, n.ID)
		return next, nil, nil
	}
	return s, nil, nil
}

// WithMuted returns a copy with the mute flag changed
func (s ObserverState) WithMuted(muted bool) ObserverState {
	next := s.clone()
	next.Muted = muted
	return next
}

// WithPermission returns a copy with the native notification permission changed
func (s ObserverState) WithPermission(granted bool) ObserverState {
	next := s.clone()
	next.PermissionGranted = granted
	return next
}
