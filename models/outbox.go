package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Change feed event types
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
)

// Change feed tables
const (
	TableOrders        = "orders"
	TableOrderItems    = "order_items"
	TableNotifications = "notifications"
)

// OutboxEvent is a committed row change waiting to be relayed to the change feed
type OutboxEvent struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Table       string     `gorm:"column:table_name;size:64;not null" json:"table"`
	EventType   string     `gorm:"size:16;not null" json:"event_type"`
	RowID       uint       `gorm:"not null" json:"row_id"`
	UserID      uint       `gorm:"not null" json:"user_id"`
	Payload     string     `gorm:"type:text;not null" json:"payload"` // JSON encoded row
	ProcessedAt *time.Time `gorm:"index" json:"processed_at"`
	MirroredAt  *time.Time `gorm:"index" json:"mirrored_at"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the OutboxEvent model
func (OutboxEvent) TableName() string {
	return "outbox_events"
}

// NewOutboxEvent builds an unprocessed event carrying row as its JSON payload
func NewOutboxEvent(table, eventType string, rowID, userID uint, row any) (*OutboxEvent, error) {
	payload, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:        uuid.New(),
		Table:     table,
		EventType: eventType,
		RowID:     rowID,
		UserID:    userID,
		Payload:   string(payload),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Row returns the JSON payload as raw bytes
func (e OutboxEvent) Row() json.RawMessage {
	return json.RawMessage(e.Payload)
}

// AllModels lists every model for AutoMigrate
func AllModels() []any {
	return []any{
		&User{},
		&Product{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&StoreSetting{},
		&Notification{},
		&PushSubscription{},
		&Notice{},
		&OutboxEvent{},
	}
}
