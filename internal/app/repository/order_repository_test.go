package repository

import (
	"testing"
	"time"

	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOrderRepoTest(t *testing.T) (OrderRepository, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})
	return NewOrderRepository(testDB), testDB
}

func newTestOrder(orderNumber string) *model.MeasurementOrder {
	return &model.MeasurementOrder{
		OrderNumber:      orderNumber,
		IsGuest:          true,
		GuestEmail:       "ada@example.com",
		CustomerName:     "Ada Obi",
		Email:            "ada@example.com",
		ShippingLocation: "Lagos",
		Status:           model.OrderStatusReceived,
		PaymentStatus:    model.PaymentStatusPending,
		Items: []model.OrderTemplateItem{
			{
				TemplateID:    1,
				TemplateTitle: "Senator Top",
				Quantity:      1,
				Measurements:  []model.MeasurementValue{{FieldName: "chest", Value: 40}},
			},
		},
	}
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	repo, _ := setupOrderRepoTest(t)

	order := newTestOrder("MSO-20260830-AAA111")
	require.NoError(t, repo.Create(order))
	assert.NotZero(t, order.ID)

	byID, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, "MSO-20260830-AAA111", byID.OrderNumber)
	require.Len(t, byID.Items, 1)
	assert.Equal(t, "Senator Top", byID.Items[0].TemplateTitle)

	byNumber, err := repo.FindByOrderNumber("MSO-20260830-AAA111")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byNumber.ID)
}

func TestOrderRepository_OrderNumberIsUnique(t *testing.T) {
	repo, _ := setupOrderRepoTest(t)

	require.NoError(t, repo.Create(newTestOrder("MSO-20260830-AAA111")))
	err := repo.Create(newTestOrder("MSO-20260830-AAA111"))
	require.Error(t, err)
}

func TestOrderRepository_FindByTransactionReference(t *testing.T) {
	repo, _ := setupOrderRepoTest(t)

	order := newTestOrder("MSO-20260830-AAA111")
	order.TransactionReference = "STL-ref-1"
	require.NoError(t, repo.Create(order))

	found, err := repo.FindByTransactionReference("STL-ref-1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = repo.FindByTransactionReference("STL-missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderRepository_AssignPriceInPlace(t *testing.T) {
	repo, _ := setupOrderRepoTest(t)

	order := newTestOrder("MSO-20260830-AAA111")
	require.NoError(t, repo.Create(order))

	updated, err := repo.AssignPriceInPlace(order.ID, 10000, 1000, 825, "admin@stitchline.example", time.Now())
	require.NoError(t, err)
	assert.True(t, updated)

	priced, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	require.NotNil(t, priced.Price)
	assert.Equal(t, float64(10000), *priced.Price)
	assert.Equal(t, "admin@stitchline.example", priced.PriceSetBy)

	// A second in-place assignment loses the guard: the order is priced.
	updated, err = repo.AssignPriceInPlace(order.ID, 12000, 1000, 975, "admin@stitchline.example", time.Now())
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestOrderRepository_AssignPriceInPlace_PaidGuard(t *testing.T) {
	repo, testDB := setupOrderRepoTest(t)

	order := newTestOrder("MSO-20260830-AAA111")
	require.NoError(t, repo.Create(order))
	testDB.Model(order).Update("payment_status", model.PaymentStatusPaid)

	updated, err := repo.AssignPriceInPlace(order.ID, 10000, 1000, 825, "admin@stitchline.example", time.Now())
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestOrderRepository_Replace(t *testing.T) {
	repo, _ := setupOrderRepoTest(t)

	original := newTestOrder("MSO-20260830-AAA111")
	require.NoError(t, repo.Create(original))

	price := 12000.0
	replacement := newTestOrder("MSO-20260830-BBB222")
	replacement.Price = &price
	originalID := original.ID
	replacement.OriginalOrderID = &originalID

	require.NoError(t, repo.Replace(original.ID, replacement, "superseded by repriced order MSO-20260830-BBB222", time.Now()))
	assert.NotZero(t, replacement.ID)

	claimed, err := repo.FindByID(original.ID)
	require.NoError(t, err)
	assert.True(t, claimed.IsReplaced)
	assert.Equal(t, model.OrderStatusCancelled, claimed.Status)
	require.NotNil(t, claimed.ReplacedByOrderID)
	assert.Equal(t, replacement.ID, *claimed.ReplacedByOrderID)
}

func TestOrderRepository_Replace_PaidOriginal(t *testing.T) {
	repo, testDB := setupOrderRepoTest(t)

	original := newTestOrder("MSO-20260830-AAA111")
	require.NoError(t, repo.Create(original))
	testDB.Model(original).Update("payment_status", model.PaymentStatusPaid)

	err := repo.Replace(original.ID, newTestOrder("MSO-20260830-BBB222"), "reprice", time.Now())
	assert.ErrorIs(t, err, ErrOrderAlreadyPaid)
}

func TestOrderRepository_Replace_AlreadyReplaced(t *testing.T) {
	repo, _ := setupOrderRepoTest(t)

	original := newTestOrder("MSO-20260830-AAA111")
	require.NoError(t, repo.Create(original))

	require.NoError(t, repo.Replace(original.ID, newTestOrder("MSO-20260830-BBB222"), "reprice", time.Now()))
	err := repo.Replace(original.ID, newTestOrder("MSO-20260830-CCC333"), "reprice", time.Now())
	assert.ErrorIs(t, err, ErrOrderAlreadyReplaced)
}

func TestOrderRepository_UpdateStatusFrom(t *testing.T) {
	repo, _ := setupOrderRepoTest(t)

	order := newTestOrder("MSO-20260830-AAA111")
	require.NoError(t, repo.Create(order))

	updated, err := repo.UpdateStatusFrom(order.ID, model.OrderStatusReceived, model.OrderStatusShipped, time.Now())
	require.NoError(t, err)
	assert.True(t, updated)

	shipped, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, shipped.Status)
	assert.NotNil(t, shipped.ShippedAt)

	// Swap loses when the expected current status no longer holds.
	updated, err = repo.UpdateStatusFrom(order.ID, model.OrderStatusReceived, model.OrderStatusDelivered, time.Now())
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestOrderRepository_MarkPaid(t *testing.T) {
	repo, _ := setupOrderRepoTest(t)

	order := newTestOrder("MSO-20260830-AAA111")
	order.TransactionReference = "STL-ref-1"
	require.NoError(t, repo.Create(order))

	updated, err := repo.MarkPaid("STL-ref-1", time.Now())
	require.NoError(t, err)
	assert.True(t, updated)

	paid, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, model.OrderStatusInReview, paid.Status)

	// Already settled, nothing matches.
	updated, err = repo.MarkPaid("STL-ref-1", time.Now())
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestOrderRepository_List(t *testing.T) {
	repo, testDB := setupOrderRepoTest(t)

	userID := uint(7)
	testDB.Create(&model.User{Email: "ada@example.com", PasswordHash: "hash", Name: "Ada Obi", Role: model.RoleCustomer})

	a := newTestOrder("MSO-20260830-AAA111")
	require.NoError(t, repo.Create(a))

	b := newTestOrder("MSO-20260830-BBB222")
	b.IsGuest = false
	b.GuestEmail = ""
	b.UserID = &userID
	b.CustomerName = "Chidi Eze"
	b.Email = "chidi@example.com"
	b.Status = model.OrderStatusShipped
	require.NoError(t, repo.Create(b))

	orders, total, err := repo.List(OrderFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, orders, 2)

	orders, total, err = repo.List(OrderFilter{Status: model.OrderStatusShipped, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "MSO-20260830-BBB222", orders[0].OrderNumber)

	isGuest := true
	_, total, err = repo.List(OrderFilter{IsGuest: &isGuest, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = repo.List(OrderFilter{Search: "Chidi", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = repo.List(OrderFilter{Search: "BBB222", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
