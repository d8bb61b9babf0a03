package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemStatus marks whether an ordered line can still be fulfilled
type OrderItemStatus string

const (
	OrderItemActive     OrderItemStatus = "active"
	OrderItemOutOfStock OrderItemStatus = "out_of_stock"
)

// IsValid reports whether the item status is a known value
func (s OrderItemStatus) IsValid() bool {
	return s == OrderItemActive || s == OrderItemOutOfStock
}

// Order represents a confirmed purchase request with a snapshot of priced items
type Order struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	UserID          uint                `gorm:"not null;index" json:"user_id"` // foreign key to users table
	User            User                `gorm:"foreignKey:UserID" json:"-"`
	TotalAmount     decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	AdjustedAmount  decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"adjusted_amount"` // nullable, set once an item goes out of stock
	Status          OrderStatus         `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	DeliveryAddress string              `gorm:"type:text;not null" json:"delivery_address"`
	Phone           string              `gorm:"not null" json:"phone"` // snapshot of the profile phone at placement
	Items           []OrderItem         `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt       time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// PayableAmount is the adjusted amount when present, the original total otherwise
func (o Order) PayableAmount() decimal.Decimal {
	if o.AdjustedAmount.Valid {
		return o.AdjustedAmount.Decimal
	}
	return o.TotalAmount
}

// OrderItem is one line of an order. Name and price are copied from the product at
// order time and never follow later product edits.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	ProductID   uint            `gorm:"not null" json:"product_id"`
	ProductName string          `gorm:"not null" json:"product_name"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity    int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	Status      OrderItemStatus `gorm:"type:varchar(32);not null;default:'active'" json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// Subtotal is price times quantity for the line
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// AdjustedAmountFor recomputes the adjusted total of a set of items. It is null while
// every item is active and the sum of active subtotals otherwise.
func AdjustedAmountFor(items []OrderItem) decimal.NullDecimal {
	sum := decimal.Zero
	anyOut := false
	for _, item := range items {
		if item.Status == OrderItemOutOfStock {
			anyOut = true
			continue
		}
		sum = sum.Add(item.Subtotal())
	}
	if !anyOut {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: sum, Valid: true}
}
