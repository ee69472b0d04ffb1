package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/internal/app/repository"
	apperrors "github.com/stitchline/stitchline-backend/internal/errors"
	"github.com/stitchline/stitchline-backend/pkg/logger"
	"github.com/stitchline/stitchline-backend/pkg/util"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// orderNumberAttempts bounds retries when a generated order number collides
// with the unique index.
const orderNumberAttempts = 3

// OrderIntakeInput carries everything a customer submits when placing a
// measurement order. Guest is nil for authenticated intake.
type OrderIntakeInput struct {
	Guest            *GuestInfoInput     `json:"guest,omitempty"`
	Items            []TemplateItemInput `json:"items"`
	ShippingLocation string              `json:"shipping_location"`
	Note             string              `json:"note,omitempty"`
	PreferredStyle   string              `json:"preferred_style,omitempty"`
}

// OrderListOptions narrows and pages the admin order listing.
type OrderListOptions struct {
	Page    int
	Limit   int
	Search  string
	Status  string
	IsGuest *bool
}

type OrderPage struct {
	Orders []model.MeasurementOrder `json:"orders"`
	Total  int64                    `json:"total"`
	Page   int                      `json:"page"`
	Limit  int                      `json:"limit"`
}

type OrderService interface {
	// CreateOrder takes in an unpriced order. userID is the authenticated
	// account if any; guest details are required when it is nil.
	CreateOrder(userID *uint, input OrderIntakeInput) (*model.MeasurementOrder, error)

	GetOrderByID(id uint) (*model.MeasurementOrder, error)
	GetOrderByNumber(orderNumber string) (*model.MeasurementOrder, error)
	GetUserOrders(userID uint) ([]model.MeasurementOrder, error)
	ListOrders(opts OrderListOptions) (*OrderPage, error)
	ExportOrders(opts OrderListOptions) (*excelize.File, error)

	// SetPrice assigns the quoted price. The first assignment mutates the
	// order in place; any later assignment supersedes it with a replacement
	// order and returns that replacement. A paid order fails with
	// ErrPriceLocked.
	SetPrice(orderID uint, price float64, setBy string) (*model.MeasurementOrder, error)

	// UpdateOrderStatus advances the fulfilment status. Stages only move
	// forward; cancelled and delivered are terminal.
	UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.MeasurementOrder, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	customers CustomerService
	templates TemplateService
	pricing   PricingService
	notifier  Notifier
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	customers CustomerService,
	templates TemplateService,
	pricing PricingService,
	notifier Notifier,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		customers: customers,
		templates: templates,
		pricing:   pricing,
		notifier:  notifier,
	}
}

func (s *orderService) CreateOrder(userID *uint, input OrderIntakeInput) (*model.MeasurementOrder, error) {
	var violations []string

	info, err := s.resolveCustomer(userID, input.Guest)
	if err != nil {
		if ve, ok := AsValidationError(err); ok {
			violations = append(violations, ve.Violations...)
		} else {
			return nil, err
		}
	}

	items, err := s.templates.ResolveItems(input.Items)
	if err != nil {
		if ve, ok := AsValidationError(err); ok {
			violations = append(violations, ve.Violations...)
		} else {
			return nil, err
		}
	}

	if input.ShippingLocation == "" {
		violations = append(violations, "shipping location is required")
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	deliveryFee, known, degraded := s.pricing.ProvisionalDeliveryFee(input.ShippingLocation)
	if !known && !degraded {
		return nil, &ValidationError{Violations: []string{
			fmt.Sprintf("unknown shipping location %q", input.ShippingLocation),
		}}
	}

	order := &model.MeasurementOrder{
		UserID:           info.UserID,
		IsGuest:          info.IsGuest,
		GuestEmail:       info.GuestEmail,
		CustomerName:     info.Name,
		Email:            info.Email,
		Phone:            info.Phone,
		Address:          info.Address,
		City:             info.City,
		State:            info.State,
		ZipCode:          info.ZipCode,
		Country:          info.Country,
		Note:             input.Note,
		PreferredStyle:   input.PreferredStyle,
		Items:            items,
		ShippingLocation: input.ShippingLocation,
		DeliveryFee:      deliveryFee,
		Status:           model.OrderStatusReceived,
		PaymentStatus:    model.PaymentStatusPending,
	}

	if err := s.createWithFreshNumber(order); err != nil {
		return nil, err
	}

	logger.Info("Measurement order created", map[string]interface{}{
		"order_number":      order.OrderNumber,
		"is_guest":          order.IsGuest,
		"items":             len(order.Items),
		"shipping_location": order.ShippingLocation,
	})
	return order, nil
}

func (s *orderService) resolveCustomer(userID *uint, guest *GuestInfoInput) (*PersonalInfo, error) {
	if userID != nil {
		return s.customers.ResolveAccountInfo(*userID)
	}
	if guest == nil {
		return nil, &ValidationError{Violations: []string{"customer details are required"}}
	}
	return s.customers.ResolveGuestInfo(*guest)
}

// createWithFreshNumber inserts the order, regenerating the order number on a
// unique-index collision. The window is tiny but two orders placed in the
// same instant can draw the same suffix.
func (s *orderService) createWithFreshNumber(order *model.MeasurementOrder) error {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := util.GenerateOrderNumber(time.Now())
		if err != nil {
			return err
		}
		order.OrderNumber = number

		err = s.orderRepo.Create(order)
		if err == nil {
			return nil
		}
		if !apperrors.IsUniqueViolation(err) {
			return err
		}
		logger.Warn("Order number collision, regenerating", map[string]interface{}{
			"order_number": number,
			"attempt":      attempt + 1,
		})
	}
	return fmt.Errorf("could not allocate a unique order number after %d attempts", orderNumberAttempts)
}

func (s *orderService) GetOrderByID(id uint) (*model.MeasurementOrder, error) {
	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetOrderByNumber(orderNumber string) (*model.MeasurementOrder, error) {
	order, err := s.orderRepo.FindByOrderNumber(orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetUserOrders(userID uint) ([]model.MeasurementOrder, error) {
	return s.orderRepo.FindByUserID(userID)
}

func (s *orderService) ListOrders(opts OrderListOptions) (*OrderPage, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := repository.OrderFilter{
		Search:  opts.Search,
		Status:  model.OrderStatus(opts.Status),
		IsGuest: opts.IsGuest,
		Limit:   limit,
		Offset:  (page - 1) * limit,
	}
	orders, total, err := s.orderRepo.List(filter)
	if err != nil {
		return nil, err
	}

	return &OrderPage{Orders: orders, Total: total, Page: page, Limit: limit}, nil
}

var exportHeaders = []string{
	"Order Number", "Created", "Customer", "Email", "Guest",
	"Shipping Location", "Price", "Delivery Fee", "Tax",
	"Status", "Payment Status", "Replaced",
}

func (s *orderService) ExportOrders(opts OrderListOptions) (*excelize.File, error) {
	filter := repository.OrderFilter{
		Search:  opts.Search,
		Status:  model.OrderStatus(opts.Status),
		IsGuest: opts.IsGuest,
		Limit:   10000,
	}
	orders, _, err := s.orderRepo.List(filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Orders"
	f.SetSheetName("Sheet1", sheet)

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for row, order := range orders {
		values := []interface{}{
			order.OrderNumber,
			order.CreatedAt.Format("2006-01-02 15:04"),
			order.CustomerName,
			order.Email,
			order.IsGuest,
			order.ShippingLocation,
			derefPrice(order.Price),
			order.DeliveryFee,
			order.Tax,
			string(order.Status),
			string(order.PaymentStatus),
			order.IsReplaced,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	return f, nil
}

func (s *orderService) SetPrice(orderID uint, price float64, setBy string) (*model.MeasurementOrder, error) {
	if price <= 0 {
		return nil, &ValidationError{Violations: []string{"price must be greater than zero"}}
	}

	order, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == model.PaymentStatusPaid {
		return nil, ErrPriceLocked
	}
	if order.IsReplaced {
		return nil, ErrOrderReplaced
	}

	quote := s.pricing.Quote(price, order.ShippingLocation, order.DeliveryFee)
	now := time.Now()

	if !order.HasPrice() {
		updated, err := s.orderRepo.AssignPriceInPlace(order.ID, price, quote.DeliveryFee, quote.Tax, setBy, now)
		if err != nil {
			return nil, err
		}
		if updated {
			priced, err := s.GetOrderByID(order.ID)
			if err != nil {
				return nil, err
			}
			logger.Info("Order priced", map[string]interface{}{
				"order_number": priced.OrderNumber,
				"price":        price,
				"set_by":       setBy,
			})
			s.notify(priced)
			return priced, nil
		}

		// The guard lost: either a payment completed or another price landed
		// first. Re-read and fall through to the replacement path if repricing
		// is still allowed.
		order, err = s.GetOrderByID(order.ID)
		if err != nil {
			return nil, err
		}
		if order.PaymentStatus == model.PaymentStatusPaid {
			return nil, ErrPriceLocked
		}
		if order.IsReplaced {
			return nil, ErrOrderReplaced
		}
	}

	return s.replaceWithPrice(order, price, quote, setBy, now)
}

// replaceWithPrice supersedes an already-priced order with a fresh one that
// carries the new price. The original keeps its history: it is cancelled,
// flagged as replaced and linked forward to its successor.
func (s *orderService) replaceWithPrice(order *model.MeasurementOrder, price float64, quote PriceQuote, setBy string, now time.Time) (*model.MeasurementOrder, error) {
	replacement := s.buildReplacement(order, price, quote, setBy, now)
	reason := fmt.Sprintf("superseded by repriced order %s", replacement.OrderNumber)

	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, genErr := util.GenerateOrderNumber(now)
		if genErr != nil {
			return nil, genErr
		}
		replacement.OrderNumber = number
		reason = fmt.Sprintf("superseded by repriced order %s", number)

		err = s.orderRepo.Replace(order.ID, replacement, reason, now)
		if err == nil {
			break
		}
		if !apperrors.IsUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderAlreadyPaid):
			return nil, ErrPriceLocked
		case errors.Is(err, repository.ErrOrderAlreadyReplaced):
			return nil, ErrOrderReplaced
		}
		return nil, err
	}

	logger.Info("Order repriced via replacement", map[string]interface{}{
		"original_order_number":    order.OrderNumber,
		"replacement_order_number": replacement.OrderNumber,
		"price":                    price,
		"set_by":                   setBy,
	})
	s.notify(replacement)
	return replacement, nil
}

// buildReplacement copies the customer snapshot and items onto a brand-new
// order. Payment and lifecycle fields start fresh; only the back pointer
// ties it to the original.
func (s *orderService) buildReplacement(order *model.MeasurementOrder, price float64, quote PriceQuote, setBy string, now time.Time) *model.MeasurementOrder {
	items := make([]model.OrderTemplateItem, len(order.Items))
	for i, item := range order.Items {
		items[i] = model.OrderTemplateItem{
			TemplateID:      item.TemplateID,
			TemplateTitle:   item.TemplateTitle,
			Quantity:        item.Quantity,
			Measurements:    item.Measurements,
			SampleImageURLs: item.SampleImageURLs,
		}
	}

	originalID := order.ID
	return &model.MeasurementOrder{
		UserID:           order.UserID,
		IsGuest:          order.IsGuest,
		GuestEmail:       order.GuestEmail,
		CustomerName:     order.CustomerName,
		Email:            order.Email,
		Phone:            order.Phone,
		Address:          order.Address,
		City:             order.City,
		State:            order.State,
		ZipCode:          order.ZipCode,
		Country:          order.Country,
		Note:             order.Note,
		PreferredStyle:   order.PreferredStyle,
		Items:            items,
		Price:            &price,
		PriceSetAt:       &now,
		PriceSetBy:       setBy,
		ShippingLocation: order.ShippingLocation,
		DeliveryFee:      quote.DeliveryFee,
		Tax:              quote.Tax,
		Status:           model.OrderStatusReceived,
		PaymentStatus:    model.PaymentStatusPending,
		OriginalOrderID:  &originalID,
	}
}

func (s *orderService) UpdateOrderStatus(orderID uint, status model.OrderStatus) (*model.MeasurementOrder, error) {
	if !model.ValidOrderStatus(status) {
		return nil, ErrInvalidStatus
	}

	order, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.orderRepo.UpdateStatusFrom(order.ID, order.Status, status, time.Now())
	if err != nil {
		return nil, err
	}
	if !updated {
		// The status moved underneath us; the transition we validated no
		// longer applies.
		return nil, ErrInvalidTransition
	}

	logger.Info("Order status updated", map[string]interface{}{
		"order_number": order.OrderNumber,
		"from":         order.Status,
		"to":           status,
	})
	return s.GetOrderByID(order.ID)
}

func (s *orderService) notify(order *model.MeasurementOrder) {
	if s.notifier != nil {
		s.notifier.NotifyPriceSet(order)
	}
}
