package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stitchline/stitchline-backend/config"
	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/pkg/logger"
)

const shippingSettingsKey = "shipping:settings"

var client *redis.Client

// Init establishes the Redis connection. Redis is optional; when it is not
// configured the settings cache and token blacklist are silently skipped.
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client = nil
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client, nil when Redis is disabled.
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection.
func Close() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// CacheShippingSettings stores the last-known-good shipping settings so the
// pricing engine can fall back to them when the settings store is down.
func CacheShippingSettings(ctx context.Context, settings *model.ShippingSetting) error {
	if client == nil {
		return nil
	}
	payload, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return client.Set(ctx, shippingSettingsKey, payload, 0).Err()
}

// GetCachedShippingSettings returns the cached shipping settings, or nil
// when there is no cache entry or Redis is disabled.
func GetCachedShippingSettings(ctx context.Context) (*model.ShippingSetting, error) {
	if client == nil {
		return nil, nil
	}
	payload, err := client.Get(ctx, shippingSettingsKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var settings model.ShippingSetting
	if err := json.Unmarshal(payload, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// BlacklistToken revokes a token until its natural expiry.
func BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	if client == nil {
		return nil
	}
	key := fmt.Sprintf("blacklist:%s", token)
	return client.Set(ctx, key, "revoked", expiry).Err()
}

// IsTokenBlacklisted reports whether a token has been revoked.
func IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if client == nil {
		return false, nil
	}
	key := fmt.Sprintf("blacklist:%s", token)
	val, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val == "revoked", nil
}
