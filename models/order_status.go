package models

import (
	"fmt"
	"strings"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusAccepted       OrderStatus = "accepted"
	OrderStatusPacked         OrderStatus = "packed"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// orderTransitions lists, per status, the statuses an order may move to next.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusAccepted, OrderStatusCancelled},
	OrderStatusAccepted:       {OrderStatusPacked, OrderStatusCancelled},
	OrderStatusPacked:         {OrderStatusOutForDelivery, OrderStatusCancelled},
	OrderStatusOutForDelivery: {OrderStatusDelivered},
	OrderStatusDelivered:      {},
	OrderStatusCancelled:      {},
}

// AllOrderStatuses returns every known status in lifecycle order
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusAccepted,
		OrderStatusPacked,
		OrderStatusOutForDelivery,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// ParseOrderStatus converts a raw string into a known OrderStatus
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(raw)
	if _, ok := orderTransitions[status]; !ok {
		known := make([]string, 0, len(orderTransitions))
		for _, candidate := range AllOrderStatuses() {
			known = append(known, string(candidate))
		}
		return "", fmt.Errorf("unknown order status %q, expected one of %s", raw, strings.Join(known, ", "))
	}
	return status, nil
}

// IsValid reports whether the status is one of the known states
func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminal reports whether no further transition is possible from the status
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// AllowedTransitions returns the statuses reachable from s in one step
func (s OrderStatus) AllowedTransitions() []OrderStatus {
	next := orderTransitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// IsValidTransition reports whether an order in status current may move to next
func IsValidTransition(current, next OrderStatus) bool {
	for _, candidate := range orderTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
