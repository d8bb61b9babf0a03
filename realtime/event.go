// Package realtime carries committed row changes to live subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/canteen-store-api/models"
)

// Event is one change on the feed: an insert, update or delete of a single row
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Table     string          `json:"table"`
	Type      string          `json:"event_type"`
	RowID     uint            `json:"row_id"`
	UserID    uint            `json:"user_id"`
	Row       json.RawMessage `json:"row"`
	CreatedAt time.Time       `json:"created_at"`
}

// EventFromOutbox converts a stored outbox row into a feed event
func EventFromOutbox(e models.OutboxEvent) Event {
	return Event{
		ID:        e.ID,
		Table:     e.Table,
		Type:      e.EventType,
		RowID:     e.RowID,
		UserID:    e.UserID,
		Row:       e.Row(),
		CreatedAt: e.CreatedAt,
	}
}

// Decode unmarshals the row payload into dst
func (e Event) Decode(dst any) error {
	return json.Unmarshal(e.Row, dst)
}

// Publisher delivers events to some downstream
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
