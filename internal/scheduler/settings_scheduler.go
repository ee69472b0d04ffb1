package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/stitchline/stitchline-backend/internal/app/service"
	"github.com/stitchline/stitchline-backend/pkg/logger"
)

// SettingsScheduler keeps the shipping settings cache warm so price quoting
// can fall back to a recent snapshot when the settings store is unavailable.
type SettingsScheduler struct {
	cron  *cron.Cron
	cache *service.SettingsCache
}

func NewSettingsScheduler(cache *service.SettingsCache) *SettingsScheduler {
	return &SettingsScheduler{
		cron:  cron.New(),
		cache: cache,
	}
}

func (s *SettingsScheduler) Start() error {
	_, err := s.cron.AddFunc("*/10 * * * *", func() {
		if err := s.cache.Refresh(context.Background()); err != nil {
			logger.Warn("Scheduled shipping settings refresh failed", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		logger.Debug("Shipping settings cache refreshed", nil)
	})
	if err != nil {
		logger.Error("Failed to add cron job for settings refresh", err)
		return err
	}

	s.cron.Start()
	logger.Info("Shipping settings scheduler started (every 10 minutes)", nil)
	return nil
}

func (s *SettingsScheduler) Stop() {
	s.cron.Stop()
	logger.Info("Shipping settings scheduler stopped", nil)
}
