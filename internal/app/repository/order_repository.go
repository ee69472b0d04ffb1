package repository

import (
	"errors"
	"time"

	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	// ErrOrderAlreadyPaid is returned when a conditional write lost against a
	// completed payment.
	ErrOrderAlreadyPaid = errors.New("order is already paid")
	// ErrOrderAlreadyReplaced is returned when a conditional write targeted an
	// order that was superseded in the meantime.
	ErrOrderAlreadyReplaced = errors.New("order is already replaced")
)

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	Search  string // matches order number, customer name or email
	Status  model.OrderStatus
	IsGuest *bool
	UserID  *uint
	Limit   int
	Offset  int
}

type OrderRepository interface {
	Create(order *model.MeasurementOrder) error
	FindByID(id uint) (*model.MeasurementOrder, error)
	FindByOrderNumber(orderNumber string) (*model.MeasurementOrder, error)
	FindByTransactionReference(reference string) (*model.MeasurementOrder, error)
	FindByUserID(userID uint) ([]model.MeasurementOrder, error)
	List(filter OrderFilter) ([]model.MeasurementOrder, int64, error)
	Update(order *model.MeasurementOrder) error

	// AssignPriceInPlace performs the first price assignment as a single
	// conditional update. It reports false without error when the guard
	// (not paid, never priced) did not match any row.
	AssignPriceInPlace(id uint, price, deliveryFee, tax float64, setBy string, at time.Time) (bool, error)

	// Replace supersedes an order with a freshly built replacement inside one
	// transaction: the original is claimed with a conditional update, the
	// replacement is inserted, and the forward pointer is linked. Fails with
	// ErrOrderAlreadyPaid / ErrOrderAlreadyReplaced when the claim loses.
	Replace(originalID uint, replacement *model.MeasurementOrder, reason string, at time.Time) error

	// UpdateStatusFrom moves the order status only if it still equals the
	// status the caller validated against, reporting whether the swap won.
	UpdateStatusFrom(id uint, from, to model.OrderStatus, at time.Time) (bool, error)

	// MarkPaid / MarkPaymentFailed apply a gateway result keyed on the
	// transaction reference as single conditional updates. They report false
	// when no pending, non-replaced order matched.
	MarkPaid(reference string, paidAt time.Time) (bool, error)
	MarkPaymentFailed(reference string, at time.Time) (bool, error)

	SetPaymentInitiation(id uint, reference, paymentURL, method string) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("Items")
}

func (r *orderRepository) Create(order *model.MeasurementOrder) error {
	logger.Debug("Creating measurement order in database", map[string]interface{}{
		"order_number":      order.OrderNumber,
		"is_guest":          order.IsGuest,
		"shipping_location": order.ShippingLocation,
	})

	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create measurement order in database", err, map[string]interface{}{
			"order_number": order.OrderNumber,
		})
		return err
	}
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.MeasurementOrder, error) {
	var order model.MeasurementOrder
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByOrderNumber(orderNumber string) (*model.MeasurementOrder, error) {
	var order model.MeasurementOrder
	if err := r.preloadOrder().Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByTransactionReference(reference string) (*model.MeasurementOrder, error) {
	var order model.MeasurementOrder
	if err := r.preloadOrder().Where("transaction_reference = ?", reference).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.MeasurementOrder, error) {
	var orders []model.MeasurementOrder
	if err := r.preloadOrder().Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) List(filter OrderFilter) ([]model.MeasurementOrder, int64, error) {
	query := r.db.Model(&model.MeasurementOrder{})

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(
			"order_number LIKE ? OR customer_name LIKE ? OR email LIKE ?",
			like, like, like,
		)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.IsGuest != nil {
		query = query.Where("is_guest = ?", *filter.IsGuest)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count measurement orders in database", err)
		return nil, 0, err
	}

	var orders []model.MeasurementOrder
	if err := query.Preload("Items").
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&orders).Error; err != nil {
		logger.Error("Failed to list measurement orders in database", err)
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) Update(order *model.MeasurementOrder) error {
	if err := r.db.Save(order).Error; err != nil {
		logger.Error("Failed to update measurement order in database", err, map[string]interface{}{
			"order_id": order.ID,
		})
		return err
	}
	return nil
}

func (r *orderRepository) AssignPriceInPlace(id uint, price, deliveryFee, tax float64, setBy string, at time.Time) (bool, error) {
	res := r.db.Model(&model.MeasurementOrder{}).
		Where("id = ? AND payment_status <> ? AND (price IS NULL OR price = 0)", id, model.PaymentStatusPaid).
		Updates(map[string]interface{}{
			"price":        price,
			"delivery_fee": deliveryFee,
			"tax":          tax,
			"price_set_at": at,
			"price_set_by": setBy,
		})
	if res.Error != nil {
		logger.Error("Failed to assign price in place", res.Error, map[string]interface{}{
			"order_id": id,
		})
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepository) Replace(originalID uint, replacement *model.MeasurementOrder, reason string, at time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Claim the original with a conditional update so a concurrent payment
		// or a second reprice cannot slip in between the guard and the write.
		claim := tx.Model(&model.MeasurementOrder{}).
			Where("id = ? AND payment_status <> ? AND is_replaced = ?", originalID, model.PaymentStatusPaid, false).
			Updates(map[string]interface{}{
				"is_replaced":         true,
				"status":              model.OrderStatusCancelled,
				"cancellation_reason": reason,
				"cancelled_at":        at,
			})
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			var original model.MeasurementOrder
			if err := tx.First(&original, originalID).Error; err != nil {
				return err
			}
			if original.PaymentStatus == model.PaymentStatusPaid {
				return ErrOrderAlreadyPaid
			}
			return ErrOrderAlreadyReplaced
		}

		if err := tx.Create(replacement).Error; err != nil {
			return err
		}

		return tx.Model(&model.MeasurementOrder{}).
			Where("id = ?", originalID).
			Update("replaced_by_order_id", replacement.ID).Error
	})
}

func (r *orderRepository) UpdateStatusFrom(id uint, from, to model.OrderStatus, at time.Time) (bool, error) {
	updates := map[string]interface{}{"status": to}
	switch to {
	case model.OrderStatusShipped:
		updates["shipped_at"] = at
	case model.OrderStatusDelivered:
		updates["delivered_at"] = at
	case model.OrderStatusCancelled:
		updates["cancelled_at"] = at
	}

	res := r.db.Model(&model.MeasurementOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		logger.Error("Failed to update order status in database", res.Error, map[string]interface{}{
			"order_id": id,
			"status":   to,
		})
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepository) MarkPaid(reference string, paidAt time.Time) (bool, error) {
	res := r.db.Model(&model.MeasurementOrder{}).
		Where("transaction_reference = ? AND payment_status = ? AND is_replaced = ?",
			reference, model.PaymentStatusPending, false).
		Updates(map[string]interface{}{
			"payment_status": model.PaymentStatusPaid,
			"paid_at":        paidAt,
			"status":         model.OrderStatusInReview,
		})
	if res.Error != nil {
		logger.Error("Failed to mark order paid in database", res.Error, map[string]interface{}{
			"transaction_reference": reference,
		})
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepository) MarkPaymentFailed(reference string, at time.Time) (bool, error) {
	res := r.db.Model(&model.MeasurementOrder{}).
		Where("transaction_reference = ? AND payment_status = ?", reference, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status":      model.PaymentStatusFailed,
			"status":              model.OrderStatusCancelled,
			"cancellation_reason": "payment failed",
			"cancelled_at":        at,
		})
	if res.Error != nil {
		logger.Error("Failed to mark order payment failed in database", res.Error, map[string]interface{}{
			"transaction_reference": reference,
		})
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepository) SetPaymentInitiation(id uint, reference, paymentURL, method string) error {
	return r.db.Model(&model.MeasurementOrder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"transaction_reference": reference,
			"payment_url":           paymentURL,
			"payment_method":        method,
		}).Error
}
