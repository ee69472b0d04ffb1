package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/internal/app/repository"
	"github.com/stitchline/stitchline-backend/pkg/logger"
	"github.com/stitchline/stitchline-backend/pkg/payment/paystack"
	"gorm.io/gorm"
)

// PaymentResult is the settled outcome of a gateway transaction.
type PaymentResult string

const (
	PaymentResultSuccess PaymentResult = "success"
	PaymentResultFailed  PaymentResult = "failed"
)

// InitiatePaymentResponse is returned to the client so it can redirect the
// customer to the gateway checkout page.
type InitiatePaymentResponse struct {
	OrderNumber      string  `json:"order_number"`
	Reference        string  `json:"reference"`
	AuthorizationURL string  `json:"authorization_url"`
	Amount           float64 `json:"amount"`
}

type PaymentService interface {
	// InitiatePayment opens a checkout session for a priced order. Unpriced
	// orders fail with ErrOrderUnpriced, already-paid ones with ErrPriceLocked.
	InitiatePayment(ctx context.Context, orderID uint) (*InitiatePaymentResponse, error)

	// HandleWebhook verifies the gateway signature and applies the event.
	// Unknown transaction references are acknowledged and logged, never
	// treated as fatal, so the gateway does not retry forever.
	HandleWebhook(body []byte, signature string) error

	// VerifyPayment re-checks a transaction against the gateway and applies
	// the result. Useful for the redirect callback.
	VerifyPayment(ctx context.Context, reference string) (*model.MeasurementOrder, error)

	// ApplyPaymentResult records a settled gateway outcome against the order
	// identified by the transaction reference.
	ApplyPaymentResult(reference string, result PaymentResult, at time.Time) error
}

type paymentService struct {
	orderRepo repository.OrderRepository
	client    *paystack.Client
}

func NewPaymentService(orderRepo repository.OrderRepository, client *paystack.Client) PaymentService {
	return &paymentService{orderRepo: orderRepo, client: client}
}

func (s *paymentService) InitiatePayment(ctx context.Context, orderID uint) (*InitiatePaymentResponse, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.IsReplaced {
		return nil, ErrOrderReplaced
	}
	if order.PaymentStatus == model.PaymentStatusPaid {
		return nil, ErrPriceLocked
	}
	if !order.HasPrice() {
		return nil, ErrOrderUnpriced
	}

	email := order.Email
	if email == "" {
		email = order.GuestEmail
	}

	amount := *order.Price + order.DeliveryFee + order.Tax
	reference := fmt.Sprintf("STL-%s", uuid.NewString())

	resp, err := s.client.Initialize(ctx, paystack.InitializeRequest{
		Email:       email,
		Amount:      toSubunit(amount),
		Reference:   reference,
		CallbackURL: s.client.GetConfig().CallbackURL,
		Metadata: map[string]interface{}{
			"order_number": order.OrderNumber,
		},
	})
	if err != nil {
		logger.Error("Failed to initialize payment", err, map[string]interface{}{
			"order_number": order.OrderNumber,
		})
		return nil, err
	}

	if err := s.orderRepo.SetPaymentInitiation(order.ID, reference, resp.AuthorizationURL, "paystack"); err != nil {
		return nil, err
	}

	logger.Info("Payment initiated", map[string]interface{}{
		"order_number": order.OrderNumber,
		"reference":    reference,
		"amount":       amount,
	})

	return &InitiatePaymentResponse{
		OrderNumber:      order.OrderNumber,
		Reference:        reference,
		AuthorizationURL: resp.AuthorizationURL,
		Amount:           amount,
	}, nil
}

// toSubunit converts a major-unit amount to the gateway's integer subunit.
func toSubunit(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (s *paymentService) HandleWebhook(body []byte, signature string) error {
	if !s.client.VerifyWebhookSignature(body, signature) {
		return ErrInvalidWebhookSignature
	}

	event, err := paystack.ParseWebhookEvent(body)
	if err != nil {
		return err
	}

	switch event.Event {
	case paystack.EventChargeSuccess:
		return s.applyLogged(event.Data.Reference, PaymentResultSuccess, eventPaidAt(event))
	case paystack.EventChargeFailed:
		return s.applyLogged(event.Data.Reference, PaymentResultFailed, time.Now())
	default:
		logger.Debug("Ignoring webhook event", map[string]interface{}{
			"event": event.Event,
		})
		return nil
	}
}

func eventPaidAt(event *paystack.WebhookEvent) time.Time {
	if event.Data.PaidAt != nil {
		return *event.Data.PaidAt
	}
	return time.Now()
}

// applyLogged applies the result but swallows an unknown reference: the
// gateway must still receive a 200 so it stops redelivering, and the mismatch
// is kept visible through the log.
func (s *paymentService) applyLogged(reference string, result PaymentResult, at time.Time) error {
	err := s.ApplyPaymentResult(reference, result, at)
	if errors.Is(err, ErrOrderNotFound) {
		logger.Warn("Webhook for unknown transaction reference", map[string]interface{}{
			"reference": reference,
			"result":    string(result),
		})
		return nil
	}
	return err
}

func (s *paymentService) VerifyPayment(ctx context.Context, reference string) (*model.MeasurementOrder, error) {
	data, err := s.client.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	result := PaymentResultFailed
	at := time.Now()
	if data.Status == paystack.TransactionSuccess {
		result = PaymentResultSuccess
		if data.PaidAt != nil {
			at = *data.PaidAt
		}
	}

	if err := s.ApplyPaymentResult(reference, result, at); err != nil {
		return nil, err
	}
	return s.orderRepo.FindByTransactionReference(reference)
}

func (s *paymentService) ApplyPaymentResult(reference string, result PaymentResult, at time.Time) error {
	switch result {
	case PaymentResultSuccess:
		updated, err := s.orderRepo.MarkPaid(reference, at)
		if err != nil {
			return err
		}
		if updated {
			logger.Info("Order marked paid", map[string]interface{}{
				"reference": reference,
			})
			return nil
		}
	case PaymentResultFailed:
		updated, err := s.orderRepo.MarkPaymentFailed(reference, at)
		if err != nil {
			return err
		}
		if updated {
			logger.Info("Order payment failed", map[string]interface{}{
				"reference": reference,
			})
			return nil
		}
	default:
		return fmt.Errorf("unknown payment result %q", result)
	}

	// No pending order matched the reference. Distinguish an unknown
	// reference from a duplicate delivery of an already-settled one.
	order, err := s.orderRepo.FindByTransactionReference(reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	logger.Debug("Payment result already applied", map[string]interface{}{
		"reference":      reference,
		"order_number":   order.OrderNumber,
		"payment_status": order.PaymentStatus,
	})
	return nil
}
