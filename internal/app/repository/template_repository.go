package repository

import (
	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/pkg/logger"
	"gorm.io/gorm"
)

type TemplateRepository interface {
	Create(template *model.MeasurementTemplate) error
	FindByID(id uint) (*model.MeasurementTemplate, error)
	FindAll() ([]model.MeasurementTemplate, error)
}

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(template *model.MeasurementTemplate) error {
	if err := r.db.Create(template).Error; err != nil {
		logger.Error("Failed to create measurement template in database", err, map[string]interface{}{
			"title": template.Title,
		})
		return err
	}
	return nil
}

func (r *templateRepository) FindByID(id uint) (*model.MeasurementTemplate, error) {
	var template model.MeasurementTemplate
	if err := r.db.First(&template, id).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) FindAll() ([]model.MeasurementTemplate, error) {
	var templates []model.MeasurementTemplate
	if err := r.db.Order("title ASC").Find(&templates).Error; err != nil {
		logger.Error("Failed to list measurement templates in database", err)
		return nil, err
	}
	return templates, nil
}
