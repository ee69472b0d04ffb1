package service

import (
	"context"
	"sync"

	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/internal/app/repository"
	"github.com/stitchline/stitchline-backend/pkg/logger"
	"github.com/stitchline/stitchline-backend/pkg/redis"
)

// SettingsSource yields the current shipping settings.
type SettingsSource interface {
	Get() (*model.ShippingSetting, error)
}

// SettingsCache fronts the shipping-settings store with a last-known-good
// copy held in memory and mirrored to Redis. Pricing must keep working when
// the settings store is briefly unreachable; the cache is what it falls
// back to.
type SettingsCache struct {
	repo repository.SettingsRepository

	mu   sync.RWMutex
	last *model.ShippingSetting
}

func NewSettingsCache(repo repository.SettingsRepository) *SettingsCache {
	return &SettingsCache{repo: repo}
}

// Get returns live settings when the store answers, falling back to the
// cached copy otherwise. The error is only non-nil when there is no
// fallback at all.
func (c *SettingsCache) Get() (*model.ShippingSetting, error) {
	settings, err := c.repo.GetShippingSettings()
	if err == nil {
		c.store(settings)
		return settings, nil
	}

	logger.Warn("Shipping settings store unreachable, using cached copy", map[string]interface{}{
		"error": err.Error(),
	})

	c.mu.RLock()
	last := c.last
	c.mu.RUnlock()
	if last != nil {
		return last, nil
	}

	if cached, cacheErr := redis.GetCachedShippingSettings(context.Background()); cacheErr == nil && cached != nil {
		c.store(cached)
		return cached, nil
	}

	return nil, err
}

// Refresh re-reads the settings store, warming both cache layers. Called on
// startup and on a cron schedule.
func (c *SettingsCache) Refresh(ctx context.Context) error {
	settings, err := c.repo.GetShippingSettings()
	if err != nil {
		return err
	}
	c.store(settings)
	if err := redis.CacheShippingSettings(ctx, settings); err != nil {
		logger.Warn("Failed to mirror shipping settings to redis", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return nil
}

func (c *SettingsCache) store(settings *model.ShippingSetting) {
	c.mu.Lock()
	c.last = settings
	c.mu.Unlock()
}
