package model

import "time"

type LocationFee struct {
	Location string  `json:"location"`
	Fee      float64 `json:"fee"`
}

// ShippingSetting is a singleton row maintained outside this service and
// consumed read-only by the pricing engine.
type ShippingSetting struct {
	ID                    uint          `gorm:"primarykey" json:"id"`
	LocationFees          []LocationFee `gorm:"serializer:json;not null" json:"location_fees"`
	FreeShippingThreshold float64       `json:"free_shipping_threshold"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

func (ShippingSetting) TableName() string {
	return "shipping_settings"
}

// FeeFor returns the configured delivery fee for a location.
func (s *ShippingSetting) FeeFor(location string) (float64, bool) {
	for _, lf := range s.LocationFees {
		if lf.Location == location {
			return lf.Fee, true
		}
	}
	return 0, false
}

// Locations returns the closed set of serviceable shipping locations.
func (s *ShippingSetting) Locations() []string {
	out := make([]string, 0, len(s.LocationFees))
	for _, lf := range s.LocationFees {
		out = append(out, lf.Location)
	}
	return out
}
