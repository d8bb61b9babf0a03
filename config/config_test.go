package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", ":memory:")
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("STORE_TIMEZONE", "Asia/Kolkata")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.DatabaseURL)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 72*time.Hour, cfg.OutboxRetention)
	assert.True(t, cfg.IsTest())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_RejectsUnknownTimezone(t *testing.T) {
	cfg := &Config{DatabaseURL: ":memory:", StoreTimezone: "Mars/Olympus"}
	assert.Error(t, cfg.Validate())
}

func TestPushEnabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.PushEnabled())

	cfg.VAPIDPublicKey = "pub"
	cfg.VAPIDPrivateKey = "priv"
	assert.True(t, cfg.PushEnabled())
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(&Config{GoEnv: "production", LogLevel: "debug"})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger = NewLogger(&Config{GoEnv: "development", LogLevel: "nonsense"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestConnectRedis(t *testing.T) {
	client, err := ConnectRedis("redis://localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, 2, client.Options().DB)
	_ = client.Close()

	_, err = ConnectRedis("not-a-url")
	assert.Error(t, err)
}
