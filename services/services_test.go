package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/kendall-kelly/canteen-store-api/tests/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// noon on a Tuesday, inside the default 09:00-21:00 window
var testNoon = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type sentPush struct {
	UserID uint
	Msg    PushMessage
}

type recordingPushSender struct {
	mu   sync.Mutex
	sent []sentPush
	err  error
}

func (r *recordingPushSender) Send(_ context.Context, userID uint, msg PushMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentPush{UserID: userID, Msg: msg})
	return r.err
}

func (r *recordingPushSender) Sent() []sentPush {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentPush(nil), r.sent...)
}

type testEnv struct {
	db            *gorm.DB
	now           time.Time
	push          *recordingPushSender
	logs          *test.Hook
	settings      *SettingsService
	carts         *CartService
	notifications *NotificationService
	orders        *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	env := &testEnv{
		db:   testutil.NewTestDB(t),
		now:  testNoon,
		push: &recordingPushSender{},
		logs: hook,
	}
	env.settings = NewSettingsService(env.db, func() time.Time { return env.now }, time.UTC)
	env.carts = NewCartService(env.db, NoopCartCache{}, log)
	env.notifications = NewNotificationService(env.db, env.push, log)
	env.orders = NewOrderService(env.db, env.settings, env.carts, env.notifications, log)
	return env
}

func (e *testEnv) customer(t *testing.T, auth0ID string) models.User {
	t.Helper()
	return testutil.CreateUser(t, e.db, auth0ID, models.RoleCustomer, testutil.StrPtr("555-0100"))
}

func (e *testEnv) fillCart(t *testing.T, userID uint, lines map[string]struct{ Price, Count int64 }) {
	t.Helper()
	ctx := context.Background()
	for name, line := range lines {
		product := testutil.CreateProduct(t, e.db, name, line.Price)
		_, err := e.carts.AddItem(ctx, userID, product.ID, int(line.Count))
		require.NoError(t, err)
	}
}

func (e *testEnv) outbox(t *testing.T, table, eventType string) []models.OutboxEvent {
	t.Helper()
	var events []models.OutboxEvent
	require.NoError(t, e.db.Where("table_name = ? AND event_type = ?", table, eventType).
		Order("created_at ASC").Find(&events).Error)
	return events
}
