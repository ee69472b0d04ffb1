package service

import (
	"fmt"

	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/pkg/logger"
	"github.com/stitchline/stitchline-backend/pkg/mailer"
)

// Notifier tells the customer their order has been priced and where to pay.
// It is fire-and-forget: a delivery failure never rolls back the price
// transition that triggered it.
type Notifier interface {
	NotifyPriceSet(order *model.MeasurementOrder)
}

type emailNotifier struct {
	mailer *mailer.Mailer
}

func NewEmailNotifier(m *mailer.Mailer) Notifier {
	return &emailNotifier{mailer: m}
}

func (n *emailNotifier) NotifyPriceSet(order *model.MeasurementOrder) {
	to := order.Email
	if to == "" {
		to = order.GuestEmail
	}
	if to == "" {
		return
	}

	subject := fmt.Sprintf("Your order %s has been priced", order.OrderNumber)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour measurement order %s has been priced.\n\nPrice: %.2f\nDelivery fee: %.2f\nTax: %.2f\n",
		order.CustomerName, order.OrderNumber, derefPrice(order.Price), order.DeliveryFee, order.Tax,
	)
	if order.PaymentURL != "" {
		body += fmt.Sprintf("\nPay here: %s\n", order.PaymentURL)
	}

	go func() {
		if err := n.mailer.Send(to, subject, body); err != nil {
			logger.Error("Failed to send price notification email", err, map[string]interface{}{
				"order_number": order.OrderNumber,
			})
		}
	}()
}

func derefPrice(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
