package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/middleware"
	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/kendall-kelly/canteen-store-api/realtime"
	"github.com/kendall-kelly/canteen-store-api/services"
	"github.com/kendall-kelly/canteen-store-api/tests/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPush struct {
	mu   sync.Mutex
	sent []uint
}

func (r *recordingPush) Send(_ context.Context, userID uint, _ services.PushMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, userID)
	return nil
}

type testApp struct {
	t             *testing.T
	db            *gorm.DB
	redis         *miniredis.Miniredis
	hub           *realtime.Hub
	now           time.Time
	push          *recordingPush
	carts         *services.CartService
	orders        *services.OrderService
	notifications *services.NotificationService
	users         *services.UserService
	relay         *realtime.OutboxRelay
	controllers   *Controllers
	auth0         map[string]*services.Auth0UserInfo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	app := &testApp{
		t:     t,
		db:    testutil.NewTestDB(t),
		redis: miniredis.RunT(t),
		hub:   realtime.NewHub(log),
		now:   time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		push:  &recordingPush{},
		auth0: map[string]*services.Auth0UserInfo{},
	}
	client := redis.NewClient(&redis.Options{Addr: app.redis.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	auth0Server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, ok := app.auth0[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(info)
	}))
	t.Cleanup(auth0Server.Close)

	prefs := services.NewPreferenceStore(client)
	settings := services.NewSettingsService(app.db, func() time.Time { return app.now }, time.UTC)
	app.carts = services.NewCartService(app.db, services.NewRedisCartCache(client), log)
	app.notifications = services.NewNotificationService(app.db, app.push, log)
	app.orders = services.NewOrderService(app.db, settings, app.carts, app.notifications, log)
	app.users = services.NewUserService(app.db, services.NewAuth0Service(auth0Server.URL))
	app.relay = realtime.NewOutboxRelay(app.db, time.Second, log, app.hub)

	events := NewEventsController(app.hub, app.notifications, prefs, log)
	app.controllers = &Controllers{
		Store:         NewStoreController(settings),
		Products:      NewProductController(services.NewProductService(app.db)),
		Cart:          NewCartController(app.carts),
		Orders:        NewOrderController(app.orders),
		Notifications: NewNotificationController(app.notifications),
		Push:          NewPushController(services.NewPushSubscriptionService(app.db), "test-public-key"),
		Preferences:   NewPreferenceController(prefs, events),
		Notices:       NewNoticeController(services.NewNoticeService(app.db, prefs)),
		Users:         NewUserController(app.users),
		Events:        events,
	}
	return app
}

// mockAuthMiddleware simulates the Auth0 JWT middleware for testing
// It sets up the context exactly as the real EnsureValidToken middleware does
func mockAuthMiddleware(auth0ID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth0ID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "INVALID_TOKEN", "message": "Failed to validate JWT."},
			})
			return
		}
		c.Set(middleware.ContextUserID, auth0ID)
		c.Set(middleware.ContextAccessToken, "token-"+auth0ID)
		c.Set(middleware.ContextClaims, &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: auth0ID},
			CustomClaims:     &middleware.CustomClaims{Role: role},
		})
		c.Next()
	}
}

// routerAs builds the full route table authenticated as auth0ID; empty means anonymous
func (a *testApp) routerAs(auth0ID, role string) *gin.Engine {
	router := gin.New()
	a.controllers.Register(router.Group("/api/v1"), mockAuthMiddleware(auth0ID, role), a.users)
	return router
}

func (a *testApp) customer(auth0ID string) models.User {
	return testutil.CreateUser(a.t, a.db, auth0ID, models.RoleCustomer, testutil.StrPtr("555-0100"))
}

func (a *testApp) admin(auth0ID string) models.User {
	return testutil.CreateUser(a.t, a.db, auth0ID, models.RoleAdmin, nil)
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	}
	return w, response
}

func errorCode(response map[string]interface{}) string {
	errObj, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errObj["code"].(string)
	return code
}
