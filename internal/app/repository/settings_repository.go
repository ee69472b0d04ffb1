package repository

import (
	"github.com/stitchline/stitchline-backend/internal/app/model"
	"gorm.io/gorm"
)

// SettingsRepository reads the shipping-settings singleton. The settings are
// maintained by the admin console outside this service and consumed
// read-only here; Save exists for seeding.
type SettingsRepository interface {
	GetShippingSettings() (*model.ShippingSetting, error)
	Save(settings *model.ShippingSetting) error
}

type settingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetShippingSettings() (*model.ShippingSetting, error) {
	var settings model.ShippingSetting
	if err := r.db.Order("id ASC").First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Save(settings *model.ShippingSetting) error {
	return r.db.Save(settings).Error
}
