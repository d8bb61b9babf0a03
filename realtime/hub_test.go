package realtime

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvent(table, eventType string, rowID, userID uint) Event {
	return Event{ID: uuid.New(), Table: table, Type: eventType, RowID: rowID, UserID: userID, Row: []byte(`{}`)}
}

func TestHub_SubscribeFiltersByTableTypeAndFilter(t *testing.T) {
	hub := NewHub(nil)
	ctx := context.Background()

	orders := hub.Subscribe("orders", []string{"insert"}, nil)
	defer orders.Close()
	mine := hub.Subscribe("notifications", nil, ForUser(7))
	defer mine.Close()
	everything := hub.Subscribe("", nil, nil)
	defer everything.Close()

	require.NoError(t, hub.Publish(ctx, newEvent("orders", "insert", 1, 3)))
	require.NoError(t, hub.Publish(ctx, newEvent("orders", "update", 1, 3)))
	require.NoError(t, hub.Publish(ctx, newEvent("notifications", "insert", 10, 7)))
	require.NoError(t, hub.Publish(ctx, newEvent("notifications", "insert", 11, 8)))

	require.Len(t, orders.Events(), 1)
	got := <-orders.Events()
	assert.Equal(t, "insert", got.Type)

	require.Len(t, mine.Events(), 1)
	got = <-mine.Events()
	assert.Equal(t, uint(10), got.RowID)

	assert.Len(t, everything.Events(), 4)
}

func TestHub_CloseTearsDownSubscription(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.Subscribe("orders", nil, nil)
	assert.Equal(t, 1, hub.SubscriberCount())

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.SubscriberCount())
	_, open := <-sub.Events()
	assert.False(t, open, "events channel should be closed")

	require.NoError(t, hub.Publish(context.Background(), newEvent("orders", "insert", 1, 1)))
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(nil)
	hub.buffer = 2
	sub := hub.Subscribe("", nil, nil)
	defer sub.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, hub.Publish(context.Background(), newEvent("orders", "insert", uint(i), 1)))
	}

	assert.Len(t, sub.Events(), 2)
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub(nil)
	a := hub.Subscribe("orders", nil, nil)
	b := hub.Subscribe("notifications", nil, nil)

	hub.Close()

	assert.Equal(t, 0, hub.SubscriberCount())
	_, openA := <-a.Events()
	_, openB := <-b.Events()
	assert.False(t, openA)
	assert.False(t, openB)
}
