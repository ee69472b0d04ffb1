package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/internal/app/repository"
	"github.com/stitchline/stitchline-backend/internal/db"
	"github.com/stitchline/stitchline-backend/pkg/payment/paystack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPaystackSecret = "sk_test_secret"

type paymentServiceFixture struct {
	paymentService PaymentService
	orderRepo      repository.OrderRepository
	db             *gorm.DB
}

func setupPaymentServiceTest(t *testing.T, gatewayURL string) *paymentServiceFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	if gatewayURL == "" {
		gatewayURL = "https://api.paystack.co"
	}
	client, err := paystack.NewClient(paystack.Config{
		SecretKey: testPaystackSecret,
		BaseURL:   gatewayURL,
	})
	require.NoError(t, err)

	orderRepo := repository.NewOrderRepository(testDB)
	return &paymentServiceFixture{
		paymentService: NewPaymentService(orderRepo, client),
		orderRepo:      orderRepo,
		db:             testDB,
	}
}

func (f *paymentServiceFixture) seedPricedOrder(t *testing.T, reference string) *model.MeasurementOrder {
	price := 10000.0
	now := time.Now()
	order := &model.MeasurementOrder{
		OrderNumber:          "MSO-20260830-ABC123",
		IsGuest:              true,
		GuestEmail:           "ada@example.com",
		CustomerName:         "Ada Obi",
		Email:                "ada@example.com",
		ShippingLocation:     "Lagos",
		Price:                &price,
		PriceSetAt:           &now,
		DeliveryFee:          1000,
		Tax:                  825,
		Status:               model.OrderStatusReceived,
		PaymentStatus:        model.PaymentStatusPending,
		TransactionReference: reference,
	}
	require.NoError(t, f.orderRepo.Create(order))
	return order
}

func signWebhook(body []byte) string {
	mac := hmac.New(sha512.New, []byte(testPaystackSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaymentService_ApplyPaymentResult_SuccessAdvancesOrder(t *testing.T) {
	f := setupPaymentServiceTest(t, "")
	order := f.seedPricedOrder(t, "STL-ref-1")

	paidAt := time.Now()
	require.NoError(t, f.paymentService.ApplyPaymentResult("STL-ref-1", PaymentResultSuccess, paidAt))

	updated, err := f.orderRepo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, model.OrderStatusInReview, updated.Status)
	assert.NotNil(t, updated.PaidAt)
}

func TestPaymentService_ApplyPaymentResult_DuplicateDeliveryIsIdempotent(t *testing.T) {
	f := setupPaymentServiceTest(t, "")
	order := f.seedPricedOrder(t, "STL-ref-1")

	require.NoError(t, f.paymentService.ApplyPaymentResult("STL-ref-1", PaymentResultSuccess, time.Now()))
	firstPaid, err := f.orderRepo.FindByID(order.ID)
	require.NoError(t, err)

	// Redelivered event must not error or overwrite the settled state.
	require.NoError(t, f.paymentService.ApplyPaymentResult("STL-ref-1", PaymentResultSuccess, time.Now().Add(time.Hour)))

	updated, err := f.orderRepo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, firstPaid.PaidAt.Unix(), updated.PaidAt.Unix())
}

func TestPaymentService_ApplyPaymentResult_UnknownReference(t *testing.T) {
	f := setupPaymentServiceTest(t, "")

	err := f.paymentService.ApplyPaymentResult("STL-no-such-ref", PaymentResultSuccess, time.Now())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPaymentService_ApplyPaymentResult_FailureCancelsOrder(t *testing.T) {
	f := setupPaymentServiceTest(t, "")
	order := f.seedPricedOrder(t, "STL-ref-1")

	require.NoError(t, f.paymentService.ApplyPaymentResult("STL-ref-1", PaymentResultFailed, time.Now()))

	updated, err := f.orderRepo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, updated.PaymentStatus)
	assert.Equal(t, model.OrderStatusCancelled, updated.Status)
	assert.Equal(t, "payment failed", updated.CancellationReason)
}

func TestPaymentService_ApplyPaymentResult_ReplacedOrderIsNeverPaid(t *testing.T) {
	f := setupPaymentServiceTest(t, "")
	order := f.seedPricedOrder(t, "STL-ref-1")

	f.db.Model(&model.MeasurementOrder{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"is_replaced": true,
			"status":      model.OrderStatusCancelled,
		})

	// A late success for the superseded order's reference is treated as a
	// duplicate, not applied.
	require.NoError(t, f.paymentService.ApplyPaymentResult("STL-ref-1", PaymentResultSuccess, time.Now()))

	updated, err := f.orderRepo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, updated.PaymentStatus)
	assert.Equal(t, model.OrderStatusCancelled, updated.Status)
}

func TestPaymentService_HandleWebhook_ChargeSuccess(t *testing.T) {
	f := setupPaymentServiceTest(t, "")
	order := f.seedPricedOrder(t, "STL-ref-1")

	body, _ := json.Marshal(paystack.WebhookEvent{
		Event: paystack.EventChargeSuccess,
		Data:  paystack.TransactionData{Reference: "STL-ref-1", Status: paystack.TransactionSuccess},
	})

	require.NoError(t, f.paymentService.HandleWebhook(body, signWebhook(body)))

	updated, err := f.orderRepo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, updated.PaymentStatus)
}

func TestPaymentService_HandleWebhook_UnknownReferenceIsAcknowledged(t *testing.T) {
	f := setupPaymentServiceTest(t, "")

	body, _ := json.Marshal(paystack.WebhookEvent{
		Event: paystack.EventChargeSuccess,
		Data:  paystack.TransactionData{Reference: "STL-no-such-ref", Status: paystack.TransactionSuccess},
	})

	// Logged and swallowed so the gateway stops retrying.
	assert.NoError(t, f.paymentService.HandleWebhook(body, signWebhook(body)))
}

func TestPaymentService_HandleWebhook_BadSignature(t *testing.T) {
	f := setupPaymentServiceTest(t, "")

	body, _ := json.Marshal(paystack.WebhookEvent{Event: paystack.EventChargeSuccess})
	err := f.paymentService.HandleWebhook(body, "deadbeef")
	assert.ErrorIs(t, err, ErrInvalidWebhookSignature)
}

func TestPaymentService_HandleWebhook_IgnoresUnrelatedEvents(t *testing.T) {
	f := setupPaymentServiceTest(t, "")

	body, _ := json.Marshal(paystack.WebhookEvent{Event: "transfer.success"})
	assert.NoError(t, f.paymentService.HandleWebhook(body, signWebhook(body)))
}

func TestPaymentService_InitiatePayment(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer "+testPaystackSecret, r.Header.Get("Authorization"))

		var req paystack.InitializeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ada@example.com", req.Email)
		// 10000 + 1000 + 825, in kobo
		assert.Equal(t, int64(1182500), req.Amount)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]interface{}{
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code":       "abc123",
				"reference":         req.Reference,
			},
		})
	}))
	defer gateway.Close()

	f := setupPaymentServiceTest(t, gateway.URL)
	order := f.seedPricedOrder(t, "")

	resp, err := f.paymentService.InitiatePayment(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, order.OrderNumber, resp.OrderNumber)
	assert.NotEmpty(t, resp.Reference)
	assert.Equal(t, "https://checkout.paystack.com/abc123", resp.AuthorizationURL)
	assert.Equal(t, 11825.0, resp.Amount)

	updated, err := f.orderRepo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Reference, updated.TransactionReference)
	assert.Equal(t, "https://checkout.paystack.com/abc123", updated.PaymentURL)
	assert.Equal(t, "paystack", updated.PaymentMethod)
}

func TestPaymentService_InitiatePayment_UnpricedOrder(t *testing.T) {
	f := setupPaymentServiceTest(t, "")

	order := &model.MeasurementOrder{
		OrderNumber:      "MSO-20260830-DEF456",
		IsGuest:          true,
		GuestEmail:       "ada@example.com",
		CustomerName:     "Ada Obi",
		Email:            "ada@example.com",
		ShippingLocation: "Lagos",
		Status:           model.OrderStatusReceived,
		PaymentStatus:    model.PaymentStatusPending,
	}
	require.NoError(t, f.orderRepo.Create(order))

	_, err := f.paymentService.InitiatePayment(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrOrderUnpriced)
}

func TestPaymentService_InitiatePayment_PaidOrder(t *testing.T) {
	f := setupPaymentServiceTest(t, "")
	order := f.seedPricedOrder(t, "STL-ref-1")

	f.db.Model(&model.MeasurementOrder{}).
		Where("id = ?", order.ID).
		Update("payment_status", model.PaymentStatusPaid)

	_, err := f.paymentService.InitiatePayment(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrPriceLocked)
}
