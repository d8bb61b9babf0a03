package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/kendall-kelly/canteen-store-api/models"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by a CartCache that holds no entry for the user
var ErrCacheMiss = errors.New("cache miss")

// CartCache keeps a read copy of each user's cart. Delete advances the user's version so
// a copy loaded before an invalidation is never stored after it.
type CartCache interface {
	Get(ctx context.Context, userID uint) (*models.Cart, error)
	Version(ctx context.Context, userID uint) (int64, error)
	SetIfVersion(ctx context.Context, userID uint, version int64, cart *models.Cart) error
	Delete(ctx context.Context, userID uint) error
}

// setIfVersion stores the cart only while the version key still holds the expected value
var setIfVersion = redis.NewScript(`
local current = redis.call('GET', KEYS[2])
if (current or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

const cartVersionTTL = 24 * time.Hour

// RedisCartCache stores carts as JSON with a jittered TTL
type RedisCartCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

// NewRedisCartCache creates a cart cache on client
func NewRedisCartCache(client *redis.Client) *RedisCartCache {
	return &RedisCartCache{client: client, baseTTL: 15 * time.Minute}
}

func (r *RedisCartCache) Get(ctx context.Context, userID uint) (*models.Cart, error) {
	data, err := r.client.Get(ctx, cartCacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

func (r *RedisCartCache) Version(ctx context.Context, userID uint) (int64, error) {
	version, err := r.client.Get(ctx, cartVersionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get version failed: %w", err)
	}
	return version, nil
}

func (r *RedisCartCache) SetIfVersion(ctx context.Context, userID uint, version int64, cart *models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	keys := []string{cartCacheKey(userID), cartVersionKey(userID)}
	if err := setIfVersion.Run(ctx, r.client, keys, strconv.FormatInt(version, 10), data, ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCartCache) Delete(ctx context.Context, userID uint) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, cartCacheKey(userID))
		pipe.Incr(ctx, cartVersionKey(userID))
		pipe.Expire(ctx, cartVersionKey(userID), cartVersionTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cartCacheKey(userID uint) string {
	return fmt.Sprintf("cart:%d", userID)
}

func cartVersionKey(userID uint) string {
	return fmt.Sprintf("cart:%d:version", userID)
}

// NoopCartCache never holds anything; every read goes to the database
type NoopCartCache struct{}

func (NoopCartCache) Get(context.Context, uint) (*models.Cart, error) { return nil, ErrCacheMiss }
func (NoopCartCache) Version(context.Context, uint) (int64, error)    { return 0, nil }
func (NoopCartCache) SetIfVersion(context.Context, uint, int64, *models.Cart) error {
	return nil
}
func (NoopCartCache) Delete(context.Context, uint) error { return nil }
