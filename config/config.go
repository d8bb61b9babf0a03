package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string        `envconfig:"DATABASE_URL"`
	Port               string        `envconfig:"PORT" default:"8080"`
	GoEnv              string        `envconfig:"GO_ENV" default:"development"`
	Auth0Domain        string        `envconfig:"AUTH0_DOMAIN"`
	Auth0Audience      string        `envconfig:"AUTH0_AUDIENCE"`
	RedisURL           string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	KafkaBrokers       []string      `envconfig:"KAFKA_BROKERS"`
	KafkaTopic         string        `envconfig:"KAFKA_TOPIC" default:"canteen-events"`
	StoreTimezone      string        `envconfig:"STORE_TIMEZONE" default:"Local"`
	VAPIDPublicKey     string        `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey    string        `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDSubject       string        `envconfig:"VAPID_SUBJECT" default:"mailto:admin@canteen.local"`
	CORSOrigins        []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"1s"`
	OutboxRetention    time.Duration `envconfig:"OUTBOX_RETENTION" default:"72h"`
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// In production environment variables are set directly
			logrus.Debug("No .env file found, using system environment variables")
		}
	} else {
		logrus.WithField("file", envFile).Info("Loaded configuration")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("STORE_TIMEZONE is invalid: %w", err)
	}
	return nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// Location resolves the store time zone used for opening hours
func (c *Config) Location() (*time.Location, error) {
	if c.StoreTimezone == "" || strings.EqualFold(c.StoreTimezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.StoreTimezone)
}

// PushEnabled reports whether VAPID keys are configured for web push
func (c *Config) PushEnabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// KafkaEnabled reports whether change events are mirrored to Kafka
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
