package realtime

import (
	"context"
	"time"

	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultRelayBatch = 100
	pruneEvery        = time.Minute
)

// relayTarget is one publisher together with the column recording delivery to it
type relayTarget struct {
	name      string
	column    string
	publisher Publisher
}

// OutboxRelay drains committed outbox rows to the change feed and, optionally, a mirror.
// Each target keeps its own delivery cursor so a mirror outage never holds back the feed.
// Delivery is at-least-once per target.
type OutboxRelay struct {
	db        *gorm.DB
	targets   []relayTarget
	interval  time.Duration
	batch     int
	retention time.Duration
	lastPrune time.Time
	log       logrus.FieldLogger
}

// NewOutboxRelay creates a relay polling every interval and publishing to feed
func NewOutboxRelay(db *gorm.DB, interval time.Duration, log logrus.FieldLogger, feed Publisher) *OutboxRelay {
	if interval <= 0 {
		interval = time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OutboxRelay{
		db:       db,
		targets:  []relayTarget{{name: "feed", column: "processed_at", publisher: feed}},
		interval: interval,
		batch:    defaultRelayBatch,
		log:      log.WithField("component", "outbox-relay"),
	}
}

// WithMirror adds a secondary publisher tracked in mirrored_at
func (r *OutboxRelay) WithMirror(mirror Publisher) *OutboxRelay {
	r.targets = append(r.targets, relayTarget{name: "mirror", column: "mirrored_at", publisher: mirror})
	return r
}

// WithRetention keeps delivered rows for d before Prune removes them. Zero keeps them forever.
func (r *OutboxRelay) WithRetention(d time.Duration) *OutboxRelay {
	r.retention = d
	return r
}

// Run polls until ctx is cancelled
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.RelayOnce(ctx); err != nil {
				r.log.WithError(err).Warn("outbox relay pass failed")
			}
			if time.Since(r.lastPrune) >= pruneEvery {
				r.lastPrune = time.Now()
				if _, err := r.Prune(ctx); err != nil {
					r.log.WithError(err).Warn("outbox prune failed")
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// RelayOnce publishes one batch of pending events to every target in commit order and
// returns how many deliveries were recorded.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	total := 0
	var firstErr error
	for _, target := range r.targets {
		n, err := r.relayTo(ctx, target)
		total += n
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return total, firstErr
}

// relayTo stops at the first event the target rejects so later changes are never
// delivered ahead of it.
func (r *OutboxRelay) relayTo(ctx context.Context, target relayTarget) (int, error) {
	var pending []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Where(target.column + " IS NULL").
		Order("created_at ASC").
		Limit(r.batch).
		Find(&pending).Error
	if err != nil {
		return 0, err
	}

	relayed := 0
	for _, row := range pending {
		if err := target.publisher.Publish(ctx, EventFromOutbox(row)); err != nil {
			r.log.WithFields(logrus.Fields{
				"target":   target.name,
				"event_id": row.ID,
				"table":    row.Table,
				"row_id":   row.RowID,
			}).WithError(err).Warn("failed to publish event, will retry")
			return relayed, nil
		}

		now := time.Now().UTC()
		if err := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
			Where("id = ?", row.ID).
			Update(target.column, now).Error; err != nil {
			return relayed, err
		}
		relayed++
	}

	return relayed, nil
}

// Prune deletes rows that every target received and that the feed delivered longer
// than the retention ago
func (r *OutboxRelay) Prune(ctx context.Context) (int64, error) {
	if r.retention <= 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().Add(-r.retention)
	query := r.db.WithContext(ctx).Where("processed_at IS NOT NULL AND processed_at < ?", cutoff)
	for _, target := range r.targets[1:] {
		query = query.Where(target.column + " IS NOT NULL")
	}

	result := query.Delete(&models.OutboxEvent{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		r.log.WithField("deleted", result.RowsAffected).Debug("pruned delivered outbox events")
	}
	return result.RowsAffected, nil
}
