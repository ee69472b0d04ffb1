package service

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/internal/app/repository"
	"github.com/stitchline/stitchline-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	minItemQuantity = 1
	maxItemQuantity = 10000
	maxSampleImages = 2
)

// TemplateItemInput is one submitted order line referencing a catalog
// template. Measurement values arrive untyped from the storefront form;
// anything that is not a positive number is dropped during resolution.
type TemplateItemInput struct {
	TemplateID      uint                   `json:"template_id"`
	Quantity        int                    `json:"quantity"`
	Measurements    map[string]interface{} `json:"measurements"`
	SampleImageURLs []string               `json:"sample_image_urls"`
}

type TemplateService interface {
	ListTemplates() ([]model.MeasurementTemplate, error)
	GetTemplateByID(id uint) (*model.MeasurementTemplate, error)
	// ResolveItems validates every submitted line against the catalog and
	// returns order items carrying a snapshot of the template title. The
	// snapshot is deliberate: later catalog edits must not rewrite past
	// orders.
	ResolveItems(inputs []TemplateItemInput) ([]model.OrderTemplateItem, error)
}

type templateService struct {
	templateRepo repository.TemplateRepository
}

func NewTemplateService(templateRepo repository.TemplateRepository) TemplateService {
	return &templateService{templateRepo: templateRepo}
}

func (s *templateService) ListTemplates() ([]model.MeasurementTemplate, error) {
	return s.templateRepo.FindAll()
}

func (s *templateService) GetTemplateByID(id uint) (*model.MeasurementTemplate, error) {
	template, err := s.templateRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return template, nil
}

func (s *templateService) ResolveItems(inputs []TemplateItemInput) ([]model.OrderTemplateItem, error) {
	if len(inputs) == 0 {
		return nil, &ValidationError{Violations: []string{"at least one template is required"}}
	}

	var violations []string
	items := make([]model.OrderTemplateItem, 0, len(inputs))

	for i, input := range inputs {
		template, err := s.templateRepo.FindByID(input.TemplateID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Order intake references unknown template", map[string]interface{}{
					"template_id": input.TemplateID,
				})
				return nil, ErrTemplateNotFound
			}
			return nil, err
		}
		if template.ID == 0 || template.Title == "" {
			return nil, ErrTemplateNotFound
		}

		measurements := normalizeMeasurements(input.Measurements)

		for _, field := range template.Fields {
			if !hasMeasurement(measurements, field) {
				violations = append(violations, fmt.Sprintf(
					"templates[%d]: missing measurement %q required by %q", i, field, template.Title))
			}
		}
		if len(measurements) == 0 {
			violations = append(violations, fmt.Sprintf(
				"templates[%d]: no valid measurements submitted", i))
		}

		quantity := input.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if quantity < minItemQuantity || quantity > maxItemQuantity {
			violations = append(violations, fmt.Sprintf(
				"templates[%d]: quantity must be between %d and %d", i, minItemQuantity, maxItemQuantity))
		}

		if len(input.SampleImageURLs) > maxSampleImages {
			violations = append(violations, fmt.Sprintf(
				"templates[%d]: at most %d sample images are allowed", i, maxSampleImages))
		}

		items = append(items, model.OrderTemplateItem{
			TemplateID:      template.ID,
			TemplateTitle:   template.Title,
			Quantity:        quantity,
			Measurements:    measurements,
			SampleImageURLs: input.SampleImageURLs,
		})
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	return items, nil
}

// normalizeMeasurements keeps only positive numeric values. Form submissions
// arrive as JSON so numbers decode as float64, but numeric strings are
// accepted too.
func normalizeMeasurements(raw map[string]interface{}) []model.MeasurementValue {
	out := make([]model.MeasurementValue, 0, len(raw))
	for field, value := range raw {
		var v float64
		switch tv := value.(type) {
		case float64:
			v = tv
		case int:
			v = float64(tv)
		case string:
			parsed, err := strconv.ParseFloat(tv, 64)
			if err != nil {
				continue
			}
			v = parsed
		default:
			continue
		}
		if v <= 0 {
			continue
		}
		out = append(out, model.MeasurementValue{FieldName: field, Value: v})
	}
	return out
}

func hasMeasurement(values []model.MeasurementValue, field string) bool {
	for _, v := range values {
		if v.FieldName == field {
			return true
		}
	}
	return false
}
