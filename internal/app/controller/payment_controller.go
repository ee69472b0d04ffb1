package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stitchline/stitchline-backend/internal/app/service"
	apperrors "github.com/stitchline/stitchline-backend/internal/errors"
	"github.com/stitchline/stitchline-backend/internal/middleware"
)

type PaymentController struct {
	paymentService service.PaymentService
}

func NewPaymentController(paymentService service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
	}
}

// InitiatePayment opens a gateway checkout session for a priced order.
// POST /api/v1/payments/orders/:id/initiate
func (ctrl *PaymentController) InitiatePayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	resp, err := ctrl.paymentService.InitiatePayment(c.Request.Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		case errors.Is(err, service.ErrOrderUnpriced):
			apperrors.Conflict(c, apperrors.OrderUnpriced, "This order has not been priced yet")
		case errors.Is(err, service.ErrPriceLocked):
			apperrors.Conflict(c, apperrors.PaymentAlreadyProcessed, "This order is already paid")
		case errors.Is(err, service.ErrOrderReplaced):
			apperrors.Conflict(c, apperrors.OrderReplaced, "This order was superseded by a replacement")
		default:
			log.Error("Failed to initiate payment", err, map[string]interface{}{
				"order_id": id,
			})
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.PaymentGatewayError, "Payment provider is unavailable")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Webhook receives gateway events. Events for unknown transaction references
// are acknowledged so the gateway stops retrying; only a bad signature is
// rejected.
// POST /api/v1/payments/webhook
func (ctrl *PaymentController) Webhook(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Unreadable webhook body")
		return
	}

	signature := c.GetHeader("X-Paystack-Signature")
	if err := ctrl.paymentService.HandleWebhook(body, signature); err != nil {
		if errors.Is(err, service.ErrInvalidWebhookSignature) {
			log.Warn("Webhook signature verification failed", nil)
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.PaymentInvalidSignature, "Invalid webhook signature")
			return
		}
		log.Error("Failed to process webhook", err, nil)
		apperrors.InternalError(c, "Failed to process webhook")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// VerifyPayment re-checks a transaction with the gateway. The storefront
// calls this on the redirect callback.
// GET /api/v1/payments/verify/:reference
func (ctrl *PaymentController) VerifyPayment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	reference := c.Param("reference")
	if reference == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "A transaction reference is required")
		return
	}

	order, err := ctrl.paymentService.VerifyPayment(c.Request.Context(), reference)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			apperrors.NotFound(c, apperrors.PaymentNotFound, "No order matches this transaction reference")
			return
		}
		log.Error("Failed to verify payment", err, map[string]interface{}{
			"reference": reference,
		})
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.PaymentGatewayError, "Payment provider is unavailable")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}
