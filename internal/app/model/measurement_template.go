package model

import (
	"time"

	"gorm.io/gorm"
)

// MeasurementTemplate is a catalog entry describing a garment style and the
// measurement fields a customer must supply to order it.
type MeasurementTemplate struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Fields      []string       `gorm:"serializer:json;not null" json:"fields"`
	BasePrice   float64        `json:"base_price"`
	ImageURL    string         `json:"image_url"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (MeasurementTemplate) TableName() string {
	return "measurement_templates"
}
