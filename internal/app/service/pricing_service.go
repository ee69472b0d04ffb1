package service

import (
	"math"

	"github.com/stitchline/stitchline-backend/pkg/logger"
)

// VATRate is the fixed value-added tax rate applied to price plus delivery
// fee once a price exists.
const VATRate = 0.075

// PriceQuote is the commercial outcome of a price assignment.
type PriceQuote struct {
	DeliveryFee float64
	Tax         float64
	// Degraded is set when the shipping-settings lookup failed and the fee
	// is a fallback rather than a configured value.
	Degraded bool
}

type PricingService interface {
	// Quote computes delivery fee and tax for a priced order. When the
	// settings source is unavailable it falls back to lastKnownFee (or
	// zero) rather than failing; the condition is logged and flagged.
	Quote(price float64, shippingLocation string, lastKnownFee float64) PriceQuote

	// ProvisionalDeliveryFee looks up the fee at order creation, before a
	// price exists. It reports whether the location is in the configured
	// set and whether the lookup was degraded.
	ProvisionalDeliveryFee(shippingLocation string) (fee float64, known bool, degraded bool)
}

type pricingService struct {
	settings SettingsSource
}

func NewPricingService(settings SettingsSource) PricingService {
	return &pricingService{settings: settings}
}

func (s *pricingService) Quote(price float64, shippingLocation string, lastKnownFee float64) PriceQuote {
	settings, err := s.settings.Get()
	if err != nil {
		logger.Warn("Pricing degraded: shipping settings unavailable", map[string]interface{}{
			"shipping_location": shippingLocation,
			"fallback_fee":      lastKnownFee,
			"error":             err.Error(),
		})
		return PriceQuote{
			DeliveryFee: lastKnownFee,
			Tax:         computeTax(price, lastKnownFee),
			Degraded:    true,
		}
	}

	fee, ok := settings.FeeFor(shippingLocation)
	if !ok {
		logger.Warn("No configured delivery fee for shipping location", map[string]interface{}{
			"shipping_location": shippingLocation,
		})
		fee = lastKnownFee
	}
	if settings.FreeShippingThreshold > 0 && price >= settings.FreeShippingThreshold {
		fee = 0
	}

	return PriceQuote{
		DeliveryFee: fee,
		Tax:         computeTax(price, fee),
	}
}

func (s *pricingService) ProvisionalDeliveryFee(shippingLocation string) (float64, bool, bool) {
	settings, err := s.settings.Get()
	if err != nil {
		logger.Warn("Provisional delivery fee degraded: shipping settings unavailable", map[string]interface{}{
			"shipping_location": shippingLocation,
			"error":             err.Error(),
		})
		return 0, false, true
	}
	fee, ok := settings.FeeFor(shippingLocation)
	return fee, ok, false
}

// computeTax rounds VAT on the taxable total to 2 decimal places.
func computeTax(price, deliveryFee float64) float64 {
	return math.Round((price+deliveryFee)*VATRate*100) / 100
}
