package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/civicdesk/helpdesk/internal/config"
)

// ErrRedisNotConfigured is returned by every call on a nil Redis.
var ErrRedisNotConfigured = errors.New("redis client not configured")

// Redis wraps the go-redis client and namespaces every key under a prefix so
// several deployments can share one instance.
type Redis struct {
	Client *redis.Client
	prefix string
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.String("prefix", cfg.KeyPrefix))
	}

	return &Redis{Client: client, prefix: strings.Trim(cfg.KeyPrefix, ":")}
}

// Key joins parts with ":" under the configured prefix.
func (r *Redis) Key(parts ...string) string {
	if r != nil && r.prefix != "" {
		parts = append([]string{r.prefix}, parts...)
	}
	return strings.Join(parts, ":")
}

// SetFlag marks key as present until ttl elapses.
func (r *Redis) SetFlag(ctx context.Context, key string, ttl time.Duration) error {
	if r == nil || r.Client == nil {
		return ErrRedisNotConfigured
	}
	return r.Client.Set(ctx, r.Key(key), "1", ttl).Err()
}

// HasFlag reports whether key is present. A missing key is not an error.
func (r *Redis) HasFlag(ctx context.Context, key string) (bool, error) {
	if r == nil || r.Client == nil {
		return false, ErrRedisNotConfigured
	}
	n, err := r.Client.Exists(ctx, r.Key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return ErrRedisNotConfigured
	}
	return r.Client.Ping(ctx).Err()
}
