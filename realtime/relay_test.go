package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/kendall-kelly/canteen-store-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	events  []Event
	failOn  uint
	failErr error
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	if p.failErr != nil && e.RowID == p.failOn {
		return p.failErr
	}
	p.events = append(p.events, e)
	return nil
}

func insertOutbox(t *testing.T, db *gorm.DB, rowID uint, createdAt time.Time) *models.OutboxEvent {
	event, err := models.NewOutboxEvent(models.TableOrders, models.EventInsert, rowID, 1, map[string]any{"id": rowID})
	require.NoError(t, err)
	event.CreatedAt = createdAt
	require.NoError(t, db.Create(event).Error)
	return event
}

func TestOutboxRelay_PublishesInCommitOrderAndMarksProcessed(t *testing.T) {
	db := testutil.NewTestDB(t)
	base := time.Now().UTC()
	insertOutbox(t, db, 2, base.Add(time.Second))
	insertOutbox(t, db, 1, base)

	pub := &recordingPublisher{}
	relay := NewOutboxRelay(db, time.Second, nil, pub)

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, pub.events, 2)
	assert.Equal(t, uint(1), pub.events[0].RowID)
	assert.Equal(t, uint(2), pub.events[1].RowID)

	var payload map[string]any
	require.NoError(t, pub.events[0].Decode(&payload))
	assert.Equal(t, float64(1), payload["id"])

	var pending int64
	db.Model(&models.OutboxEvent{}).Where("processed_at IS NULL").Count(&pending)
	assert.Equal(t, int64(0), pending)

	n, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n, "processed events are not relayed twice")
}

func TestOutboxRelay_StopsAtFailureAndRetries(t *testing.T) {
	db := testutil.NewTestDB(t)
	base := time.Now().UTC()
	insertOutbox(t, db, 1, base)
	insertOutbox(t, db, 2, base.Add(time.Second))
	insertOutbox(t, db, 3, base.Add(2*time.Second))

	pub := &recordingPublisher{failOn: 2, failErr: errors.New("broker down")}
	relay := NewOutboxRelay(db, time.Second, nil, pub)

	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, pub.events, 1)

	pub.failErr = nil
	n, err = relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, pub.events, 3)
	assert.Equal(t, uint(2), pub.events[1].RowID)
	assert.Equal(t, uint(3), pub.events[2].RowID)
}

func TestOutboxRelay_FeedsHub(t *testing.T) {
	db := testutil.NewTestDB(t)
	insertOutbox(t, db, 42, time.Now().UTC())

	hub := NewHub(nil)
	sub := hub.Subscribe(models.TableOrders, []string{models.EventInsert}, nil)
	defer sub.Close()

	relay := NewOutboxRelay(db, 10*time.Millisecond, nil, hub)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go relay.Run(ctx)

	select {
	case e := <-sub.Events():
		assert.Equal(t, uint(42), e.RowID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relayed event")
	}
}

func TestOutboxRelay_MirrorOutageDoesNotHoldBackFeed(t *testing.T) {
	db := testutil.NewTestDB(t)
	base := time.Now().UTC()
	insertOutbox(t, db, 1, base)
	insertOutbox(t, db, 2, base.Add(time.Second))

	feed := &recordingPublisher{}
	mirror := &recordingPublisher{failOn: 1, failErr: errors.New("broker down")}
	relay := NewOutboxRelay(db, time.Second, nil, feed).WithMirror(mirror)

	for i := 0; i < 3; i++ {
		_, err := relay.RelayOnce(context.Background())
		require.NoError(t, err)
	}

	require.Len(t, feed.events, 2, "each row reaches the feed exactly once")
	assert.Equal(t, uint(1), feed.events[0].RowID)
	assert.Equal(t, uint(2), feed.events[1].RowID)
	assert.Empty(t, mirror.events)

	var unmirrored int64
	db.Model(&models.OutboxEvent{}).Where("mirrored_at IS NULL").Count(&unmirrored)
	assert.Equal(t, int64(2), unmirrored)

	mirror.failErr = nil
	n, err := relay.RelayOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, mirror.events, 2)
	assert.Equal(t, uint(1), mirror.events[0].RowID)
	assert.Len(t, feed.events, 2)
}

func TestOutboxRelay_Prune(t *testing.T) {
	db := testutil.NewTestDB(t)
	now := time.Now().UTC()
	old := now.Add(-48 * time.Hour)
	recent := now.Add(-time.Hour)

	delivered := insertOutbox(t, db, 1, old)
	unmirrored := insertOutbox(t, db, 2, old)
	fresh := insertOutbox(t, db, 3, recent)
	pending := insertOutbox(t, db, 4, old)

	db.Model(&models.OutboxEvent{}).Where("id = ?", delivered.ID).Updates(map[string]any{"processed_at": old, "mirrored_at": old})
	db.Model(&models.OutboxEvent{}).Where("id = ?", unmirrored.ID).Update("processed_at", old)
	db.Model(&models.OutboxEvent{}).Where("id = ?", fresh.ID).Updates(map[string]any{"processed_at": recent, "mirrored_at": recent})

	relay := NewOutboxRelay(db, time.Second, nil, &recordingPublisher{}).
		WithMirror(&recordingPublisher{}).
		WithRetention(24 * time.Hour)

	deleted, err := relay.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []models.OutboxEvent
	require.NoError(t, db.Order("row_id ASC").Find(&remaining).Error)
	require.Len(t, remaining, 3)
	assert.Equal(t, unmirrored.ID, remaining[0].ID, "rows the mirror has not received are kept")
	assert.Equal(t, fresh.ID, remaining[1].ID)
	assert.Equal(t, pending.ID, remaining[2].ID)

	withoutMirror := NewOutboxRelay(db, time.Second, nil, &recordingPublisher{}).WithRetention(24 * time.Hour)
	deleted, err = withoutMirror.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = NewOutboxRelay(db, time.Second, nil, &recordingPublisher{}).Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted, "no retention keeps every row")
}
