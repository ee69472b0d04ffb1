package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/internal/app/repository"
	"github.com/stitchline/stitchline-backend/internal/app/service"
	"github.com/stitchline/stitchline-backend/internal/db"
	"github.com/stitchline/stitchline-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOrderControllerTest(t *testing.T) (*OrderController, *gin.Engine, *gorm.DB, *model.MeasurementTemplate) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	template := &model.MeasurementTemplate{
		Title:     "Senator Top",
		Fields:    []string{"chest", "waist", "length"},
		BasePrice: 15000,
	}
	testDB.Create(template)

	testDB.Create(&model.ShippingSetting{
		LocationFees:          []model.LocationFee{{Location: "Lagos", Fee: 1000}},
		FreeShippingThreshold: 100000,
	})

	orderRepo := repository.NewOrderRepository(testDB)
	orderService := service.NewOrderService(
		orderRepo,
		service.NewCustomerService(repository.NewUserRepository(testDB)),
		service.NewTemplateService(repository.NewTemplateRepository(testDB)),
		service.NewPricingService(service.NewSettingsCache(repository.NewSettingsRepository(testDB))),
		nil,
	)
	orderController := NewOrderController(orderService)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	return orderController, router, testDB, template
}

func guestOrderBody(templateID uint) map[string]interface{} {
	return map[string]interface{}{
		"guest": map[string]interface{}{
			"first_name": "Ada",
			"last_name":  "Obi",
			"email":      "ada@example.com",
			"phone":      "08012345678",
			"address":    "12 Marina Road",
			"city":       "Lagos",
			"state":      "Lagos",
			"zip_code":   "100001",
			"country":    "Nigeria",
		},
		"items": []map[string]interface{}{
			{
				"template_id":  templateID,
				"quantity":     1,
				"measurements": map[string]interface{}{"chest": 40, "waist": 32, "length": 28},
			},
		},
		"shipping_location": "Lagos",
	}
}

func TestOrderController_CreateOrder_Guest(t *testing.T) {
	controller, router, _, template := setupOrderControllerTest(t)

	router.POST("/orders", controller.CreateOrder)

	body, _ := json.Marshal(guestOrderBody(template.ID))
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Order model.MeasurementOrder `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Regexp(t, `^MSO-\d{8}-[A-Z0-9]{6}$`, response.Order.OrderNumber)
	assert.True(t, response.Order.IsGuest)
	assert.Nil(t, response.Order.Price)
}

func TestOrderController_CreateOrder_ViolationsReturned(t *testing.T) {
	controller, router, _, template := setupOrderControllerTest(t)

	router.POST("/orders", controller.CreateOrder)

	body := guestOrderBody(template.ID)
	body["guest"] = map[string]interface{}{"email": "ada@example.com"}
	delete(body, "shipping_location")

	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var response struct {
		Violations []string `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Greater(t, len(response.Violations), 1)
}

func TestOrderController_SetPrice_ThenRepriceReturnsReplacement(t *testing.T) {
	controller, router, _, template := setupOrderControllerTest(t)

	router.POST("/orders", controller.CreateOrder)
	router.PUT("/admin/orders/:id/price", func(c *gin.Context) {
		c.Set(middleware.UserEmailKey, "admin@stitchline.example")
		controller.SetPrice(c)
	})

	body, _ := json.Marshal(guestOrderBody(template.ID))
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Order model.MeasurementOrder `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	priceBody := []byte(`{"price": 10000}`)
	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/admin/orders/%d/price", created.Order.ID), bytes.NewReader(priceBody))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var priced struct {
		Order model.MeasurementOrder `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &priced))
	assert.Equal(t, created.Order.ID, priced.Order.ID)
	require.NotNil(t, priced.Order.Price)
	assert.Equal(t, float64(10000), *priced.Order.Price)

	// Repricing responds with the replacement order.
	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/admin/orders/%d/price", created.Order.ID), bytes.NewReader([]byte(`{"price": 12000}`)))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var replaced struct {
		Order model.MeasurementOrder `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &replaced))
	assert.NotEqual(t, created.Order.ID, replaced.Order.ID)
	require.NotNil(t, replaced.Order.OriginalOrderID)
	assert.Equal(t, created.Order.ID, *replaced.Order.OriginalOrderID)
}

func TestOrderController_SetPrice_PaidConflict(t *testing.T) {
	controller, router, testDB, template := setupOrderControllerTest(t)

	router.POST("/orders", controller.CreateOrder)
	router.PUT("/admin/orders/:id/price", controller.SetPrice)

	body, _ := json.Marshal(guestOrderBody(template.ID))
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Order model.MeasurementOrder `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	testDB.Model(&model.MeasurementOrder{}).
		Where("id = ?", created.Order.ID).
		Update("payment_status", model.PaymentStatusPaid)

	req = httptest.NewRequest(http.MethodPut, fmt.Sprintf("/admin/orders/%d/price", created.Order.ID), bytes.NewReader([]byte(`{"price": 12000}`)))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOrderController_TrackOrder(t *testing.T) {
	controller, router, _, template := setupOrderControllerTest(t)

	router.POST("/orders", controller.CreateOrder)
	router.GET("/orders/track", controller.TrackOrder)

	body, _ := json.Marshal(guestOrderBody(template.ID))
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Order model.MeasurementOrder `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req = httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/orders/track?order_number=%s&email=ada@example.com", created.Order.OrderNumber), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Wrong email behaves as not found.
	req = httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/orders/track?order_number=%s&email=other@example.com", created.Order.OrderNumber), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
