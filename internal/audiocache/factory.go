package audiocache

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// DriverType selects the backing store for the fingerprint index.
type DriverType string

const (
	DriverMemory DriverType = "memory"
	DriverFile   DriverType = "file"
	DriverRedis  DriverType = "redis"
)

// StoreOption is a functional option for configuring a cache store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	indexPath   string
	redisClient *redis.Client
	redisTTL    time.Duration
}

// WithIndexPath sets the JSON index location for the file store.
func WithIndexPath(path string) StoreOption {
	return func(c *storeConfig) { c.indexPath = path }
}

// WithRedisClient sets the Redis client for the Redis store.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) { c.redisClient = client }
}

// WithRedisTTL sets the TTL for Redis keys.
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) { c.redisTTL = ttl }
}

// NewStore creates a Store for the given driver type.
// The file driver persists its index before Insert returns; the Redis driver
// is durable as far as the server's persistence configuration allows.
func NewStore(driver DriverType, opts ...StoreOption) (Store, error) {
	config := &storeConfig{}
	for _, opt := range opts {
		opt(config)
	}

	switch driver {
	case DriverMemory:
		return newMemoryStore(), nil

	case DriverFile:
		if config.indexPath == "" {
			return nil, ErrInvalidConfig
		}
		return openFileStore(config.indexPath)

	case DriverRedis:
		if config.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		ttl := config.redisTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		return &redisStore{client: config.redisClient, ttl: ttl}, nil

	default:
		return nil, ErrInvalidDriver
	}
}
