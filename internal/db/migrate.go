package db

import (
	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/pkg/logger"
)

// Migrate runs database migrations.
func Migrate() error {
	logger.Info("Running database migrations...")

	models := []interface{}{
		&model.User{},
		&model.MeasurementTemplate{},
		&model.ShippingSetting{},
		&model.MeasurementOrder{},
		&model.OrderTemplateItem{},
	}

	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}
