package config

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis builds a client from a redis:// URL. The connection is lazy; the first
// command dials.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}
