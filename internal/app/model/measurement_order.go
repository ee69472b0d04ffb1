package model

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusReceived     OrderStatus = "received"
	OrderStatusInReview     OrderStatus = "in_review"
	OrderStatusInProduction OrderStatus = "in_production"
	OrderStatusReady        OrderStatus = "ready"
	OrderStatusShipped      OrderStatus = "shipped"
	OrderStatusDelivered    OrderStatus = "delivered"
	OrderStatusCancelled    OrderStatus = "cancelled"

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// orderStatusRank orders the non-terminal progress stages. Cancelled sits
// outside the chain and is reachable from any stage.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusReceived:     0,
	OrderStatusInReview:     1,
	OrderStatusInProduction: 2,
	OrderStatusReady:        3,
	OrderStatusShipped:      4,
	OrderStatusDelivered:    5,
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s OrderStatus) bool {
	if s == OrderStatusCancelled {
		return true
	}
	_, ok := orderStatusRank[s]
	return ok
}

// CanTransitionTo reports whether an order may move from its current status
// to next. Progress stages only move forward; cancelled and delivered are
// terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == OrderStatusCancelled || s == OrderStatusDelivered {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	from, ok := orderStatusRank[s]
	if !ok {
		return false
	}
	to, ok := orderStatusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// MeasurementOrder is a made-to-order tailoring order. Customer identity and
// template titles are snapshots taken at creation time; later edits to the
// account or catalog never flow back into the order.
type MeasurementOrder struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;not null" json:"order_number"`

	// Exactly one of UserID / (IsGuest + GuestEmail) is set.
	UserID     *uint  `gorm:"index" json:"user_id,omitempty"`
	IsGuest    bool   `json:"is_guest"`
	GuestEmail string `json:"guest_email,omitempty"`

	CustomerName string `gorm:"not null" json:"customer_name"`
	Email        string `gorm:"not null" json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Country      string `json:"country"`

	Note           string `gorm:"type:text" json:"note,omitempty"`
	PreferredStyle string `json:"preferred_style,omitempty"`

	Items []OrderTemplateItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	Price            *float64   `json:"price,omitempty"`
	PriceSetAt       *time.Time `json:"price_set_at,omitempty"`
	PriceSetBy       string     `json:"price_set_by,omitempty"`
	ShippingLocation string     `gorm:"not null" json:"shipping_location"`
	DeliveryFee      float64    `json:"delivery_fee"`
	Tax              float64    `json:"tax"`

	Status        OrderStatus   `gorm:"type:varchar(20);default:'received'" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	PaymentMethod string        `gorm:"type:varchar(50)" json:"payment_method,omitempty"`

	TransactionReference string `gorm:"type:varchar(100);index" json:"transaction_reference,omitempty"`
	PaymentReference     string `gorm:"type:varchar(100)" json:"payment_reference,omitempty"`
	PaymentURL           string `json:"payment_url,omitempty"`

	PaidAt             *time.Time `json:"paid_at,omitempty"`
	ShippedAt          *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`

	// Replacement chain. ReplacedByOrderID is the forward pointer on the
	// superseded order, OriginalOrderID the back pointer on its replacement.
	IsReplaced        bool  `json:"is_replaced"`
	ReplacedByOrderID *uint `gorm:"index" json:"replaced_by_order_id,omitempty"`
	OriginalOrderID   *uint `gorm:"index" json:"original_order_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (MeasurementOrder) TableName() string {
	return "measurement_orders"
}

// HasPrice reports whether a price has ever been assigned. Zero counts as
// unpriced so a legacy zero-valued record still takes the in-place path.
func (o *MeasurementOrder) HasPrice() bool {
	return o.Price != nil && *o.Price > 0
}

type MeasurementValue struct {
	FieldName string  `json:"field_name"`
	Value     float64 `json:"value"`
}

type OrderTemplateItem struct {
	ID              uint               `gorm:"primarykey" json:"id"`
	OrderID         uint               `gorm:"not null;index" json:"order_id"`
	TemplateID      uint               `gorm:"not null;index" json:"template_id"`
	TemplateTitle   string             `gorm:"not null" json:"template_title"`
	Quantity        int                `gorm:"not null;default:1" json:"quantity"`
	Measurements    []MeasurementValue `gorm:"serializer:json;not null" json:"measurements"`
	SampleImageURLs []string           `gorm:"serializer:json" json:"sample_image_urls,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	DeletedAt       gorm.DeletedAt     `gorm:"index" json:"-"`
}

func (OrderTemplateItem) TableName() string {
	return "order_template_items"
}
