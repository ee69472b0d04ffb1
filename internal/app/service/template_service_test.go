package service

import (
	"testing"

	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/internal/app/repository"
	"github.com/stitchline/stitchline-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTemplateServiceTest(t *testing.T) (TemplateService, *gorm.DB, *model.MeasurementTemplate) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	templateRepo := repository.NewTemplateRepository(testDB)
	templateService := NewTemplateService(templateRepo)

	template := &model.MeasurementTemplate{
		Title:     "Senator Top",
		Fields:    []string{"chest", "waist", "length"},
		BasePrice: 15000,
	}
	testDB.Create(template)

	return templateService, testDB, template
}

func TestTemplateService_ResolveItems_Success(t *testing.T) {
	templateService, _, template := setupTemplateServiceTest(t)

	items, err := templateService.ResolveItems([]TemplateItemInput{
		{
			TemplateID: template.ID,
			Quantity:   2,
			Measurements: map[string]interface{}{
				"chest":  float64(40),
				"waist":  float64(32),
				"length": float64(28),
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, template.ID, items[0].TemplateID)
	assert.Equal(t, "Senator Top", items[0].TemplateTitle)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Len(t, items[0].Measurements, 3)
}

func TestTemplateService_ResolveItems_SnapshotsTitleAtResolution(t *testing.T) {
	templateService, testDB, template := setupTemplateServiceTest(t)

	items, err := templateService.ResolveItems([]TemplateItemInput{
		{
			TemplateID: template.ID,
			Measurements: map[string]interface{}{
				"chest": float64(40), "waist": float64(32), "length": float64(28),
			},
		},
	})
	require.NoError(t, err)

	// A later catalog rename must not affect what was resolved.
	testDB.Model(template).Update("title", "Renamed Style")
	assert.Equal(t, "Senator Top", items[0].TemplateTitle)
}

func TestTemplateService_ResolveItems_QuantityDefaultsToOne(t *testing.T) {
	templateService, _, template := setupTemplateServiceTest(t)

	items, err := templateService.ResolveItems([]TemplateItemInput{
		{
			TemplateID: template.ID,
			Measurements: map[string]interface{}{
				"chest": float64(40), "waist": float64(32), "length": float64(28),
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestTemplateService_ResolveItems_ReportsEveryMissingMeasurement(t *testing.T) {
	templateService, _, template := setupTemplateServiceTest(t)

	_, err := templateService.ResolveItems([]TemplateItemInput{
		{
			TemplateID:   template.ID,
			Measurements: map[string]interface{}{"chest": float64(40)},
		},
	})
	require.Error(t, err)

	ve, ok := AsValidationError(err)
	require.True(t, ok)
	// waist and length are both reported, not just the first
	assert.Len(t, ve.Violations, 2)
}

func TestTemplateService_ResolveItems_DropsNonPositiveAndNonNumericValues(t *testing.T) {
	templateService, _, template := setupTemplateServiceTest(t)

	_, err := templateService.ResolveItems([]TemplateItemInput{
		{
			TemplateID: template.ID,
			Measurements: map[string]interface{}{
				"chest":  "not a number",
				"waist":  float64(-5),
				"length": float64(0),
			},
		},
	})
	require.Error(t, err)

	ve, ok := AsValidationError(err)
	require.True(t, ok)
	// all three fields end up missing plus the no-valid-measurements note
	assert.Len(t, ve.Violations, 4)
}

func TestTemplateService_ResolveItems_AcceptsNumericStrings(t *testing.T) {
	templateService, _, template := setupTemplateServiceTest(t)

	items, err := templateService.ResolveItems([]TemplateItemInput{
		{
			TemplateID: template.ID,
			Measurements: map[string]interface{}{
				"chest": "40.5", "waist": float64(32), "length": float64(28),
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestTemplateService_ResolveItems_UnknownTemplate(t *testing.T) {
	templateService, _, _ := setupTemplateServiceTest(t)

	_, err := templateService.ResolveItems([]TemplateItemInput{
		{TemplateID: 9999, Measurements: map[string]interface{}{"chest": float64(40)}},
	})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTemplateService_ResolveItems_EmptyInput(t *testing.T) {
	templateService, _, _ := setupTemplateServiceTest(t)

	_, err := templateService.ResolveItems(nil)
	_, ok := AsValidationError(err)
	assert.True(t, ok)
}

func TestTemplateService_ResolveItems_TooManySampleImages(t *testing.T) {
	templateService, _, template := setupTemplateServiceTest(t)

	_, err := templateService.ResolveItems([]TemplateItemInput{
		{
			TemplateID: template.ID,
			Measurements: map[string]interface{}{
				"chest": float64(40), "waist": float64(32), "length": float64(28),
			},
			SampleImageURLs: []string{"a.jpg", "b.jpg", "c.jpg"},
		},
	})
	require.Error(t, err)

	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Len(t, ve.Violations, 1)
}

func TestTemplateService_GetTemplateByID_NotFound(t *testing.T) {
	templateService, _, _ := setupTemplateServiceTest(t)

	_, err := templateService.GetTemplateByID(9999)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}
