package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/canteen-store-api/alerts"
	"github.com/kendall-kelly/canteen-store-api/config"
	"github.com/kendall-kelly/canteen-store-api/controllers"
	"github.com/kendall-kelly/canteen-store-api/middleware"
	"github.com/kendall-kelly/canteen-store-api/realtime"
	"github.com/kendall-kelly/canteen-store-api/services"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// application holds the wired process: storage, services, background workers and the
// HTTP handlers
type application struct {
	cfg         *config.Config
	log         *logrus.Logger
	db          *gorm.DB
	redis       *redis.Client
	hub         *realtime.Hub
	relay       *realtime.OutboxRelay
	kafka       *realtime.KafkaPublisher
	forwarder   *alerts.PushForwarder
	users       *services.UserService
	controllers *controllers.Controllers
}

// newApplication connects to the database and Redis, migrates the schema and wires
// every component
func newApplication(cfg *config.Config, log *logrus.Logger) (*application, error) {
	db, err := config.ConnectDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := config.MigrateDatabase(db); err != nil {
		return nil, err
	}
	log.Info("Database migration completed successfully")

	rdb, err := config.ConnectRedis(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	return assemble(cfg, log, db, rdb)
}

// assemble builds the services and handlers on top of open connections
func assemble(cfg *config.Config, log *logrus.Logger, db *gorm.DB, rdb *redis.Client) (*application, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	app := &application{cfg: cfg, log: log, db: db, redis: rdb, hub: realtime.NewHub(log)}

	app.relay = realtime.NewOutboxRelay(db, cfg.OutboxPollInterval, log, app.hub).
		WithRetention(cfg.OutboxRetention)
	if cfg.KafkaEnabled() {
		app.kafka = realtime.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		app.relay.WithMirror(app.kafka)
		log.WithField("topic", cfg.KafkaTopic).Info("Mirroring change feed to Kafka")
	}

	subscriptions := services.NewPushSubscriptionService(db)
	var push services.PushSender = services.NoopPushSender{}
	if cfg.PushEnabled() {
		push = services.NewWebPushSender(subscriptions, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject, log)
	} else {
		log.Warn("VAPID keys not set, web push disabled")
	}

	prefs := services.NewPreferenceStore(rdb)
	settings := services.NewSettingsService(db, time.Now, loc)
	carts := services.NewCartService(db, services.NewRedisCartCache(rdb), log)
	notifications := services.NewNotificationService(db, push, log)
	orders := services.NewOrderService(db, settings, carts, notifications, log)
	app.users = services.NewUserService(db, services.NewAuth0Service(cfg.Auth0Domain))
	app.forwarder = alerts.NewPushForwarder(app.users, push, log)

	publicKey := ""
	if cfg.PushEnabled() {
		publicKey = cfg.VAPIDPublicKey
	}

	events := controllers.NewEventsController(app.hub, notifications, prefs, log)
	app.controllers = &controllers.Controllers{
		Store:         controllers.NewStoreController(settings),
		Products:      controllers.NewProductController(services.NewProductService(db)),
		Cart:          controllers.NewCartController(carts),
		Orders:        controllers.NewOrderController(orders),
		Notifications: controllers.NewNotificationController(notifications),
		Push:          controllers.NewPushController(subscriptions, publicKey),
		Preferences:   controllers.NewPreferenceController(prefs, events),
		Notices:       controllers.NewNoticeController(services.NewNoticeService(db, prefs)),
		Users:         controllers.NewUserController(app.users),
		Events:        events,
	}
	return app, nil
}

// router builds the gin engine. authenticate validates bearer tokens.
func (app *application) router(authenticate gin.HandlerFunc) *gin.Engine {
	if app.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(app.log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     app.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus(app.db))
	}
	app.controllers.Register(v1, authenticate, app.users)

	return router
}

// Run serves HTTP and the background workers until ctx is cancelled
func (app *application) Run(ctx context.Context) error {
	authenticate, err := middleware.EnsureValidToken(app.cfg, app.log)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + app.cfg.Port,
		Handler:           otelhttp.NewHandler(app.router(authenticate), "canteen-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	workers, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	go app.relay.Run(workers)
	go func() {
		if err := app.forwarder.Run(workers, app.forwarder.Subscribe(app.hub)); err != nil && !errors.Is(err, context.Canceled) {
			app.log.WithError(err).Error("push forwarder stopped")
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		app.log.WithField("port", app.cfg.Port).Info("Server is running")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	app.log.Info("Shutting down")
	app.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// Close releases the connections held by the application
func (app *application) Close() {
	if app.kafka != nil {
		if err := app.kafka.Close(); err != nil {
			app.log.WithError(err).Warn("failed to close kafka writer")
		}
	}
	if err := app.redis.Close(); err != nil {
		app.log.WithError(err).Warn("failed to close redis client")
	}
	if sqlDB, err := app.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Canteen Store API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the underlying SQL database to check connection
		sqlDB, err := db.DB()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to get database instance",
				},
			})
			return
		}

		// Ping the database to verify connection
		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_CONNECTION_ERROR",
					"message": "Database connection failed",
				},
			})
			return
		}

		tables, err := db.Migrator().GetTables()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_QUERY_ERROR",
					"message": "Failed to query tables",
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Database connected",
			"tables":  tables,
		})
	}
}
