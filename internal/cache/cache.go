package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Connect opens a redis client and checks it with a ping.
// An empty address returns a nil client: cache, feed and locks then run in local mode.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "",
		DB:       0,
		PoolSize: 10,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// Cache stores JSON blobs in redis. A Cache without a client is a no-op.
type Cache struct {
	rdb    *redis.Client
	logger *logrus.Logger
}

func New(rdb *redis.Client) *Cache {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &Cache{rdb: rdb, logger: logger}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// GetObject decodes key into dest. found is false when the key does not exist.
func (c *Cache) GetObject(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) SetObject(ctx context.Context, key string, obj any, exp time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, key, data, exp).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to write cache")
		return err
	}
	return nil
}

func (c *Cache) Remove(ctx context.Context, keys ...string) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
