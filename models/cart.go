package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one line of a user's cart, holding a product snapshot and a count
type CartItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID   uint            `gorm:"not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	ProductName string          `gorm:"not null" json:"product_name"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Count       int             `gorm:"not null;check:count > 0" json:"count"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the CartItem model
func (CartItem) TableName() string {
	return "cart_items"
}

// Cart is the ordered set of cart lines belonging to one user
type Cart struct {
	UserID uint       `json:"user_id"`
	Items  []CartItem `json:"items"`
}

// Total is the sum of price times count over every line
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Count))))
	}
	return total
}

// IsEmpty reports whether the cart has no lines
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
