package services

import (
	"fmt"

	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/pkg/errors"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderItemNotFound    = errors.New("order item not found")
	ErrOrderLocked          = errors.New("order is in a terminal status and cannot be edited")
	ErrOrderNotAccepted     = errors.New("order items can only be changed after acceptance")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrProductUnavailable   = errors.New("product is not available")
	ErrUserNotFound         = errors.New("user not found")
	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrNoticeNotFound       = errors.New("notice not found")
)

// StoreClosedError rejects an order placed while the store is not accepting orders
type StoreClosedError struct {
	Message string
}

func (e *StoreClosedError) Error() string {
	return "store is closed: " + e.Message
}

// ValidationError is a user-correctable problem with the request
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PersistenceError wraps any storage failure. Callers show a generic retry message.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// InvalidTransitionError rejects a status change the order lifecycle does not allow
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: errors.WithStack(err)}
}

// IsValidation reports whether err is a *ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsPersistence reports whether err is a *PersistenceError
func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}
